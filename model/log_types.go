package model

// SourceLabel marks log entries written by the memo upload flow.
const SourceLabel = "Memo PDF"

// LogEntry is one append-only row of the transactions log. Entries are
// never updated or deleted once written.
type LogEntry struct {
	ID            int    `db:"id" json:"id"`
	LoggedAt      string `db:"logged_at" json:"loggedAt"`
	SourceLabel   string `db:"source_label" json:"sourceLabel"`
	MemoNo        string `db:"memo_no" json:"memoNo"`
	ItemCode      string `db:"item_code" json:"itemCode"`
	QuantityDelta int    `db:"quantity_delta" json:"quantityDelta"`
	Reason        string `db:"reason" json:"reason"`
	Employee      string `db:"employee" json:"employee"`
	Notes         string `db:"notes" json:"notes"`
}

// Reasons is the fixed set accepted for log entries.
var Reasons = []string{"Sale", "Amazon", "Adjustment", "Return", "Damage"}

func ValidReason(s string) bool {
	for _, r := range Reasons {
		if s == r {
			return true
		}
	}
	return false
}
