// Package reconcile turns a parsed memo into validated stock mutations and
// log entries. The engine does no I/O and never reads the clock: it works
// over the snapshots it is handed, which keeps every check testable against
// one consistent view of the store.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"jinv/model"
)

// ErrDuplicateMemo halts processing before any mutation when the memo
// number was seen in a previous commit.
var ErrDuplicateMemo = errors.New("memo already processed")

// maxListedCodes caps the codes named by UnknownItemCodeError so error
// messages stay short on badly OCR'd memos.
const maxListedCodes = 10

// UnknownItemCodeError reports parsed codes missing from the inventory.
type UnknownItemCodeError struct {
	Codes []string
}

func (e *UnknownItemCodeError) Error() string {
	listed := e.Codes
	suffix := ""
	if len(listed) > maxListedCodes {
		suffix = fmt.Sprintf(" (and %d more)", len(listed)-maxListedCodes)
		listed = listed[:maxListedCodes]
	}
	return "unknown item codes: " + strings.Join(listed, ", ") + suffix
}

// InsufficientStockError reports the first code whose decrement would drive
// on-hand below zero.
type InsufficientStockError struct {
	ItemCode  string
	OnHand    int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: on hand %d, requested %d",
		e.ItemCode, e.OnHand, e.Requested)
}

// NormalizeMemoNo is the comparison form used for duplicate detection.
func NormalizeMemoNo(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Reconcile validates the parsed memo against the stock snapshot and the
// previously recorded memo numbers, and computes one StockMutation and one
// LogEntry per distinct item code, ordered by code. When the memo number is
// absent, duplicate detection is skipped. at is the caller-captured commit
// instant; reason and employee are attached verbatim to every entry.
func Reconcile(memo model.ParsedMemo, stock map[string]int, knownMemoNos map[string]struct{},
	at time.Time, reason, employee string) ([]model.StockMutation, []model.LogEntry, error) {

	memoNo := NormalizeMemoNo(memo.MemoNo)
	if memoNo != "" {
		if _, seen := knownMemoNos[memoNo]; seen {
			return nil, nil, ErrDuplicateMemo
		}
	}

	codes := make([]string, 0, len(memo.Items))
	for code := range memo.Items {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var missing []string
	for _, code := range codes {
		if _, ok := stock[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &UnknownItemCodeError{Codes: missing}
	}

	for _, code := range codes {
		if stock[code]-memo.Items[code] < 0 {
			return nil, nil, &InsufficientStockError{
				ItemCode:  code,
				OnHand:    stock[code],
				Requested: memo.Items[code],
			}
		}
	}

	loggedAt := at.Format("2006-01-02 15:04:05")

	mutations := make([]model.StockMutation, 0, len(codes))
	entries := make([]model.LogEntry, 0, len(codes))
	for _, code := range codes {
		qty := memo.Items[code]
		mutations = append(mutations, model.StockMutation{
			ItemCode:  code,
			NewOnHand: stock[code] - qty,
			Delta:     -qty,
		})
		entries = append(entries, model.LogEntry{
			LoggedAt:      loggedAt,
			SourceLabel:   model.SourceLabel,
			MemoNo:        memoNo,
			ItemCode:      code,
			QuantityDelta: -qty,
			Reason:        reason,
			Employee:      employee,
		})
	}

	return mutations, entries, nil
}
