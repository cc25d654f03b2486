package model

// InventoryRecord is one row of the inventory table.
type InventoryRecord struct {
	ItemCode string `db:"item_code" json:"itemCode"`
	OnHand   int    `db:"on_hand" json:"onHand"`
}
