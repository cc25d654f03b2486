package memoupload

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"jinv/database"
	"jinv/model"
)

// ApplyMutations writes the inventory decrements and appends the matching
// log rows in a single transaction. The original dual-write against the
// spreadsheet could be left half-applied; here either everything lands or
// nothing does. Each row is located at write time, so a row deleted since
// the snapshot surfaces as database.ErrRowNotFound and rolls back the lot.
func ApplyMutations(db *sqlx.DB, mutations []model.StockMutation, entries []model.LogEntry) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range mutations {
		if err := database.SetOnHandInTx(tx, m.ItemCode, m.NewOnHand); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := database.InsertLogEntryInTx(tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}
	return nil
}
