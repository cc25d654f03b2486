package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"jinv/model"
)

const logColumns = `id, logged_at, source_label, memo_no, item_code, quantity_delta, reason, employee, notes`

const insertLogEntryQuery = `
INSERT INTO transactions_log (
    logged_at, source_label, memo_no, item_code, quantity_delta, reason, employee, notes
) VALUES (
    :logged_at, :source_label, :memo_no, :item_code, :quantity_delta, :reason, :employee, :notes
)`

// InsertLogEntryInTx appends one log row. The log is append-only; there is
// deliberately no update or delete counterpart.
func InsertLogEntryInTx(tx *sqlx.Tx, entry model.LogEntry) error {
	_, err := tx.NamedExec(insertLogEntryQuery, entry)
	if err != nil {
		return fmt.Errorf("failed to insert log entry for %s: %w", entry.ItemCode, err)
	}
	return nil
}

// KnownMemoNos returns the set of memo numbers already recorded in the log,
// normalized to uppercase/trimmed. Blank memo numbers are excluded: entries
// committed without a detected memo number cannot participate in duplicate
// detection.
func KnownMemoNos(db *sqlx.DB) (map[string]struct{}, error) {
	var memoNos []string
	err := db.Select(&memoNos, `SELECT DISTINCT memo_no FROM transactions_log WHERE TRIM(memo_no) != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to read known memo numbers: %w", err)
	}

	known := make(map[string]struct{}, len(memoNos))
	for _, no := range memoNos {
		known[strings.ToUpper(strings.TrimSpace(no))] = struct{}{}
	}
	return known, nil
}

// ListLogEntries returns log rows newest first, optionally filtered by memo
// number and/or item code.
func ListLogEntries(db *sqlx.DB, memoNo, itemCode string) ([]model.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM transactions_log`
	var conds []string
	var args []interface{}

	if memoNo != "" {
		conds = append(conds, `UPPER(TRIM(memo_no)) = ?`)
		args = append(args, strings.ToUpper(strings.TrimSpace(memoNo)))
	}
	if itemCode != "" {
		conds = append(conds, `item_code = ?`)
		args = append(args, strings.ToUpper(strings.TrimSpace(itemCode)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id DESC`

	var entries []model.LogEntry
	if err := db.Select(&entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return entries, nil
}
