package model

// ParsedMemo is the result of running the memo parser over one OCR text.
// Items maps normalized item codes to the summed requested quantity.
type ParsedMemo struct {
	MemoNo string
	Items  map[string]int
}

// MemoItem is one preview row shown to the operator before commit.
type MemoItem struct {
	ItemCode string `json:"itemCode"`
	Quantity int    `json:"quantity"`
}

// StockMutation is one computed inventory decrement. Delta is always
// negative (-requested quantity); NewOnHand is the post-write count.
type StockMutation struct {
	ItemCode  string `json:"itemCode"`
	NewOnHand int    `json:"newOnHand"`
	Delta     int    `json:"delta"`
}
