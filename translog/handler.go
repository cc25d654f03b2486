package translog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"jinv/database"
)

// ListLogHandler returns transaction log entries newest first. Optional
// query parameters memo_no and item_code narrow the result.
func ListLogHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		entries, err := database.ListLogEntries(db, q.Get("memo_no"), q.Get("item_code"))
		if err != nil {
			http.Error(w, "Failed to list log entries: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

func quoteAll(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportLogCSVHandler streams the transaction log as a CSV download.
func ExportLogCSVHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		entries, err := database.ListLogEntries(db, q.Get("memo_no"), q.Get("item_code"))
		if err != nil {
			http.Error(w, "Failed to export log entries: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		buf.Write([]byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM

		header := []string{"logged_at", "source_label", "memo_no", "item_code", "quantity_delta", "reason", "employee", "notes"}
		buf.WriteString(strings.Join(header, ",") + "\r\n")

		for _, e := range entries {
			record := []string{
				quoteAll(e.LoggedAt),
				quoteAll(e.SourceLabel),
				quoteAll(e.MemoNo),
				quoteAll(e.ItemCode),
				strconv.Itoa(e.QuantityDelta),
				quoteAll(e.Reason),
				quoteAll(e.Employee),
				quoteAll(e.Notes),
			}
			buf.WriteString(strings.Join(record, ",") + "\r\n")
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions_log.csv"`)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
		w.Write(buf.Bytes())
	}
}
