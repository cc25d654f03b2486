package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"jinv/model"
)

// ErrRowNotFound is returned when a targeted on-hand write matches no row.
// This happens when the inventory was edited between snapshot and write.
var ErrRowNotFound = errors.New("inventory row not found")

// InventorySnapshot reads the whole inventory table into a code → on-hand
// map. Codes are uppercased; NULL counts are coerced to 0.
func InventorySnapshot(db *sqlx.DB) (map[string]int, error) {
	var records []model.InventoryRecord
	err := db.Select(&records, `SELECT item_code, COALESCE(on_hand, 0) AS on_hand FROM inventory`)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory snapshot: %w", err)
	}

	snapshot := make(map[string]int, len(records))
	for _, rec := range records {
		snapshot[strings.ToUpper(strings.TrimSpace(rec.ItemCode))] = rec.OnHand
	}
	return snapshot, nil
}

// ListInventory returns all inventory rows ordered by item code.
func ListInventory(db *sqlx.DB) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	err := db.Select(&records, `SELECT item_code, COALESCE(on_hand, 0) AS on_hand FROM inventory ORDER BY item_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return records, nil
}

// GetInventoryRecord looks up a single row by code. Returns ErrRowNotFound
// when the code does not exist.
func GetInventoryRecord(db *sqlx.DB, itemCode string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := db.Get(&rec, `SELECT item_code, COALESCE(on_hand, 0) AS on_hand FROM inventory WHERE item_code = ?`,
		strings.ToUpper(strings.TrimSpace(itemCode)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("failed to get inventory record for %s: %w", itemCode, err)
	}
	return &rec, nil
}

// SetOnHandInTx writes a new on-hand count for one code. The row is looked
// up at write time, not snapshot time: zero affected rows means the row
// disappeared underneath us and the caller aborts with ErrRowNotFound.
func SetOnHandInTx(tx *sqlx.Tx, itemCode string, newOnHand int) error {
	res, err := tx.Exec(`UPDATE inventory SET on_hand = ? WHERE item_code = ?`, newOnHand, itemCode)
	if err != nil {
		return fmt.Errorf("failed to update on_hand for %s: %w", itemCode, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for %s: %w", itemCode, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, itemCode)
	}
	return nil
}

// UpsertInventoryInTx inserts or replaces one inventory row.
func UpsertInventoryInTx(tx *sqlx.Tx, rec model.InventoryRecord) error {
	_, err := tx.Exec(`INSERT INTO inventory (item_code, on_hand) VALUES (?, ?)
		ON CONFLICT(item_code) DO UPDATE SET on_hand = excluded.on_hand`,
		strings.ToUpper(strings.TrimSpace(rec.ItemCode)), rec.OnHand)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory row %s: %w", rec.ItemCode, err)
	}
	return nil
}
