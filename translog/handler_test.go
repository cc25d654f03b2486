package translog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinv/database"
	"jinv/model"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func seedLog(t *testing.T, db *sqlx.DB) {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	for _, e := range []model.LogEntry{
		{LoggedAt: "2026-03-14 09:30:00", SourceLabel: model.SourceLabel, MemoNo: "M-1", ItemCode: "BR2Y-14K", QuantityDelta: -3, Reason: "Sale", Employee: "Dana"},
		{LoggedAt: "2026-03-14 09:31:00", SourceLabel: model.SourceLabel, MemoNo: "M-2", ItemCode: "GB5W-14K", QuantityDelta: -1, Reason: "Amazon", Employee: "Lee", Notes: `say "hi"`},
	} {
		require.NoError(t, database.InsertLogEntryInTx(tx, e))
	}
	require.NoError(t, tx.Commit())
}

func TestListLogHandler(t *testing.T) {
	db := openTestDB(t)
	seedLog(t, db)

	rec := httptest.NewRecorder()
	ListLogHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/log?memo_no=M-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []model.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "BR2Y-14K", entries[0].ItemCode)
}

func TestExportLogCSVHandler(t *testing.T) {
	db := openTestDB(t)
	seedLog(t, db)

	rec := httptest.NewRecorder()
	ExportLogCSVHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/log/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "logged_at,source_label,memo_no")
	assert.Contains(t, body, `"M-1"`)
	// Embedded quotes must be doubled per CSV rules.
	assert.Contains(t, body, `"say ""hi"""`)
}
