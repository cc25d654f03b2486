package memoupload

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
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

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractText(ctx context.Context, pdfBytes []byte, filename string) (string, error) {
	return s.text, s.err
}

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

func seedInventory(t *testing.T, db *sqlx.DB, rows map[string]int) {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	for code, onHand := range rows {
		require.NoError(t, database.UpsertInventoryInTx(tx, model.InventoryRecord{ItemCode: code, OnHand: onHand}))
	}
	require.NoError(t, tx.Commit())
}

func uploadRequest(t *testing.T, url string, pdf []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "memo.pdf")
	require.NoError(t, err)
	_, err = fw.Write(pdf)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPreviewMemoHandler(t *testing.T) {
	db := openTestDB(t)
	extractor := &stubExtractor{text: "Memo # : M-42\nBR2Y-14K  3  units\nGB5W-14K-2  1 unit\nShipping 2\n"}

	rec := httptest.NewRecorder()
	PreviewMemoHandler(db, extractor)(rec, uploadRequest(t, "/api/memo/preview", []byte("%PDF-fake")))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "M-42", resp.MemoNo)
	assert.Equal(t, []model.MemoItem{
		{ItemCode: "BR2Y-14K", Quantity: 3},
		{ItemCode: "GB5W-14K-2", Quantity: 1},
	}, resp.Items)
	assert.False(t, resp.AlreadyProcessed)
}

func TestPreviewMemoHandlerNoItemsDetected(t *testing.T) {
	db := openTestDB(t)
	extractor := &stubExtractor{text: "completely unrelated text\n"}

	rec := httptest.NewRecorder()
	PreviewMemoHandler(db, extractor)(rec, uploadRequest(t, "/api/memo/preview", []byte("%PDF-fake")))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No item codes detected.", resp["message"])
	assert.Contains(t, resp["rawText"], "unrelated")
}

func TestPreviewMemoHandlerFlagsAlreadyProcessed(t *testing.T) {
	db := openTestDB(t)
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, database.InsertLogEntryInTx(tx, model.LogEntry{
		LoggedAt: "2026-03-14 09:30:00", SourceLabel: model.SourceLabel,
		MemoNo: "M-42", ItemCode: "BR2Y-14K", QuantityDelta: -1, Reason: "Sale", Employee: "Dana",
	}))
	require.NoError(t, tx.Commit())

	extractor := &stubExtractor{text: "Memo # M-42\nBR2Y-14K 1\n"}
	rec := httptest.NewRecorder()
	PreviewMemoHandler(db, extractor)(rec, uploadRequest(t, "/api/memo/preview", []byte("%PDF-fake")))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.AlreadyProcessed)
}

func commitRequest(t *testing.T, payload CommitPayload) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/memo/commit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCommitMemoHandlerEndToEnd(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 10, "GB5W-14K-2": 2})

	rec := httptest.NewRecorder()
	CommitMemoHandler(db)(rec, commitRequest(t, CommitPayload{
		MemoNo:   "M-42",
		Reason:   "Sale",
		Employee: "Dana",
		Items: []model.MemoItem{
			{ItemCode: "BR2Y-14K", Quantity: 3},
			{ItemCode: "GB5W-14K-2", Quantity: 1},
		},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snapshot, err := database.InventorySnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"BR2Y-14K": 7, "GB5W-14K-2": 1}, snapshot)

	entries, err := database.ListLogEntries(db, "M-42", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.SourceLabel, e.SourceLabel)
		assert.Equal(t, "Sale", e.Reason)
		assert.Equal(t, "Dana", e.Employee)
	}
}

func TestCommitMemoHandlerRejectsDuplicate(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 10})

	payload := CommitPayload{
		MemoNo: "M-9", Reason: "Sale", Employee: "Dana",
		Items: []model.MemoItem{{ItemCode: "BR2Y-14K", Quantity: 1}},
	}

	first := httptest.NewRecorder()
	CommitMemoHandler(db)(first, commitRequest(t, payload))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	CommitMemoHandler(db)(second, commitRequest(t, payload))
	assert.Equal(t, http.StatusConflict, second.Code)

	// The duplicate attempt must not have touched the store.
	snapshot, err := database.InventorySnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"BR2Y-14K": 9}, snapshot)
}

func TestCommitMemoHandlerInsufficientStock(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 5})

	rec := httptest.NewRecorder()
	CommitMemoHandler(db)(rec, commitRequest(t, CommitPayload{
		Reason: "Sale", Employee: "Dana",
		Items: []model.MemoItem{{ItemCode: "BR2Y-14K", Quantity: 7}},
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock")

	snapshot, err := database.InventorySnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"BR2Y-14K": 5}, snapshot)
}

func TestCommitMemoHandlerUnknownCode(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 5})

	rec := httptest.NewRecorder()
	CommitMemoHandler(db)(rec, commitRequest(t, CommitPayload{
		Reason: "Sale", Employee: "Dana",
		Items: []model.MemoItem{{ItemCode: "GB5W-14K", Quantity: 1}},
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "GB5W-14K")
}

func TestCommitMemoHandlerValidation(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 5})

	cases := []struct {
		name    string
		payload CommitPayload
	}{
		{"invalid reason", CommitPayload{Reason: "Gift", Employee: "Dana",
			Items: []model.MemoItem{{ItemCode: "BR2Y-14K", Quantity: 1}}}},
		{"no items", CommitPayload{Reason: "Sale", Employee: "Dana"}},
		{"bad code", CommitPayload{Reason: "Sale", Employee: "Dana",
			Items: []model.MemoItem{{ItemCode: "NOT-A-CODE", Quantity: 1}}}},
		{"zero qty", CommitPayload{Reason: "Sale", Employee: "Dana",
			Items: []model.MemoItem{{ItemCode: "BR2Y-14K", Quantity: 0}}}},
		{"noise qty", CommitPayload{Reason: "Sale", Employee: "Dana",
			Items: []model.MemoItem{{ItemCode: "BR2Y-14K", Quantity: 1000}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			CommitMemoHandler(db)(rec, commitRequest(t, tc.payload))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCommitMemoHandlerAggregatesEditedDuplicateRows(t *testing.T) {
	db := openTestDB(t)
	seedInventory(t, db, map[string]int{"BR2Y-14K": 10})

	rec := httptest.NewRecorder()
	CommitMemoHandler(db)(rec, commitRequest(t, CommitPayload{
		Reason: "Sale", Employee: "Dana",
		Items: []model.MemoItem{
			{ItemCode: "br2y-14k", Quantity: 3},
			{ItemCode: "BR2Y-14K", Quantity: 4},
		},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snapshot, err := database.InventorySnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"BR2Y-14K": 3}, snapshot)
}
