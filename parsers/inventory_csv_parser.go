package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"jinv/model"
)

// ParseInventoryCSV reads an inventory CSV with at least the columns
// item_code and on_hand. Codes are uppercased; blank or non-numeric on_hand
// values are coerced to 0. Rows without an item code are skipped.
func ParseInventoryCSV(r io.Reader) ([]model.InventoryRecord, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex, err := getColIndex(header, []string{"item_code", "on_hand"})
	if err != nil {
		return nil, err
	}

	var records []model.InventoryRecord
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("WARN: CSV line %d read error (skipped): %v", line, err)
			continue
		}

		get := func(idx int) string {
			if idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		code := strings.ToUpper(get(colIndex["item_code"]))
		if code == "" {
			continue
		}

		onHand, err := strconv.Atoi(get(colIndex["on_hand"]))
		if err != nil || onHand < 0 {
			onHand = 0
		}

		records = append(records, model.InventoryRecord{ItemCode: code, OnHand: onHand})
	}

	return records, nil
}
