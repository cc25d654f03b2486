package memoupload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jinv/config"
	"jinv/database"
	"jinv/extract"
	"jinv/model"
	"jinv/parsers"
	"jinv/reconcile"
)

func respondJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// PreviewResponse is what the operator reviews (and may edit) before commit.
type PreviewResponse struct {
	MemoNo           string           `json:"memoNo"`
	Items            []model.MemoItem `json:"items"`
	AlreadyProcessed bool             `json:"alreadyProcessed"`
}

// PreviewMemoHandler accepts a memo PDF upload, runs text extraction and
// parsing, and returns the parsed line items for review. Nothing is written.
func PreviewMemoHandler(db *sqlx.DB, extractor extract.TextExtractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reqID := uuid.NewString()[:8]
		log.Printf("[%s] Received memo upload request...", reqID)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			respondJSONError(w, "A memo PDF is required", http.StatusBadRequest)
			return
		}
		fileHeader := files[0]

		file, err := fileHeader.Open()
		if err != nil {
			respondJSONError(w, "Failed to open uploaded file: "+err.Error(), http.StatusBadRequest)
			return
		}
		pdfBytes, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondJSONError(w, "Failed to read uploaded file: "+err.Error(), http.StatusBadRequest)
			return
		}

		log.Printf("[%s] Running text extraction on %s (%d bytes)...", reqID, fileHeader.Filename, len(pdfBytes))
		text, err := extractor.ExtractText(r.Context(), pdfBytes, fileHeader.Filename)
		if err != nil {
			var ocrErr *extract.OCRFailure
			if errors.As(err, &ocrErr) {
				log.Printf("[%s] OCR failure: %v", reqID, err)
				respondJSONError(w, err.Error(), http.StatusBadGateway)
				return
			}
			respondJSONError(w, "Text extraction failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		parsed := parsers.ParseMemoText(text)
		if len(parsed.Items) == 0 {
			log.Printf("[%s] No item codes detected in %s", reqID, fileHeader.Filename)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "No item codes detected.",
				"rawText": text,
			})
			return
		}

		known, err := database.KnownMemoNos(db)
		if err != nil {
			respondJSONError(w, "Failed to read transaction history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_, alreadyProcessed := known[reconcile.NormalizeMemoNo(parsed.MemoNo)]
		alreadyProcessed = alreadyProcessed && parsed.MemoNo != ""

		resp := PreviewResponse{
			MemoNo:           parsed.MemoNo,
			Items:            sortedItems(parsed.Items),
			AlreadyProcessed: alreadyProcessed,
		}
		log.Printf("[%s] Parsed memo %q with %d item(s) from %s", reqID, parsed.MemoNo, len(resp.Items), fileHeader.Filename)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// CommitPayload carries the reviewed (possibly operator-edited) line items.
type CommitPayload struct {
	MemoNo   string           `json:"memoNo"`
	Reason   string           `json:"reason"`
	Employee string           `json:"employee"`
	Notes    string           `json:"notes"`
	Items    []model.MemoItem `json:"items"`
}

// CommitMemoHandler re-reads fresh store snapshots, reconciles the reviewed
// items against them, and applies the resulting mutations atomically.
func CommitMemoHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var payload CommitPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if !model.ValidReason(payload.Reason) {
			respondJSONError(w, fmt.Sprintf("Invalid reason %q", payload.Reason), http.StatusBadRequest)
			return
		}
		employee := strings.TrimSpace(payload.Employee)
		if employee == "" {
			employee = config.GetConfig().DefaultEmployee
		}
		if len(payload.Items) == 0 {
			respondJSONError(w, "No items to commit.", http.StatusBadRequest)
			return
		}

		memo := model.ParsedMemo{
			MemoNo: payload.MemoNo,
			Items:  make(map[string]int, len(payload.Items)),
		}
		for _, item := range payload.Items {
			code := strings.ToUpper(strings.TrimSpace(item.ItemCode))
			if !parsers.ItemCodeRE.MatchString(code) {
				respondJSONError(w, fmt.Sprintf("Item code %q does not match the catalog pattern", item.ItemCode), http.StatusBadRequest)
				return
			}
			if item.Quantity <= 0 || item.Quantity > parsers.MaxQuantity {
				respondJSONError(w, fmt.Sprintf("Quantity %d for %s is out of range", item.Quantity, code), http.StatusBadRequest)
				return
			}
			memo.Items[code] += item.Quantity
		}

		stock, err := database.InventorySnapshot(db)
		if err != nil {
			respondJSONError(w, "Failed to read inventory: "+err.Error(), http.StatusInternalServerError)
			return
		}
		known, err := database.KnownMemoNos(db)
		if err != nil {
			respondJSONError(w, "Failed to read transaction history: "+err.Error(), http.StatusInternalServerError)
			return
		}

		mutations, entries, err := reconcile.Reconcile(memo, stock, known, time.Now(), payload.Reason, employee)
		if err != nil {
			status := http.StatusInternalServerError
			var unknownErr *reconcile.UnknownItemCodeError
			var stockErr *reconcile.InsufficientStockError
			switch {
			case errors.Is(err, reconcile.ErrDuplicateMemo):
				status = http.StatusConflict
			case errors.As(err, &unknownErr):
				status = http.StatusUnprocessableEntity
			case errors.As(err, &stockErr):
				status = http.StatusConflict
			}
			respondJSONError(w, err.Error(), status)
			return
		}

		if payload.Notes != "" {
			for i := range entries {
				entries[i].Notes = payload.Notes
			}
		}

		if err := ApplyMutations(db, mutations, entries); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, database.ErrRowNotFound) {
				status = http.StatusConflict
			}
			log.Printf("Failed to apply memo %q: %v", payload.MemoNo, err)
			respondJSONError(w, err.Error(), status)
			return
		}

		log.Printf("Applied memo %q: %d item(s) decremented by %s", payload.MemoNo, len(mutations), employee)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":   "Inventory updated successfully",
			"memoNo":    reconcile.NormalizeMemoNo(payload.MemoNo),
			"mutations": mutations,
		})
	}
}

func sortedItems(items map[string]int) []model.MemoItem {
	out := make([]model.MemoItem, 0, len(items))
	for code, qty := range items {
		out = append(out, model.MemoItem{ItemCode: code, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out
}
