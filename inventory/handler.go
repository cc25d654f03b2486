package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"jinv/config"
	"jinv/database"
	"jinv/model"
	"jinv/parsers"
)

func respondJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ListInventoryHandler returns all inventory rows ordered by item code.
func ListInventoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := database.ListInventory(db)
		if err != nil {
			respondJSONError(w, "Failed to list inventory: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// AdjustPayload is a manual on-hand correction for one item code.
type AdjustPayload struct {
	ItemCode  string `json:"itemCode"`
	NewOnHand int    `json:"newOnHand"`
	Employee  string `json:"employee"`
	Notes     string `json:"notes"`
}

// AdjustInventoryHandler sets a new on-hand count for one code and appends
// an Adjustment log entry carrying the signed difference. The log write and
// the count write share one transaction.
func AdjustInventoryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var payload AdjustPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		code := strings.ToUpper(strings.TrimSpace(payload.ItemCode))
		if code == "" {
			respondJSONError(w, "Item code is required", http.StatusBadRequest)
			return
		}
		if payload.NewOnHand < 0 {
			respondJSONError(w, "On-hand count cannot be negative", http.StatusBadRequest)
			return
		}
		employee := strings.TrimSpace(payload.Employee)
		if employee == "" {
			employee = config.GetConfig().DefaultEmployee
		}

		current, err := database.GetInventoryRecord(db, code)
		if err != nil {
			if errors.Is(err, database.ErrRowNotFound) {
				respondJSONError(w, fmt.Sprintf("Unknown item code %s", code), http.StatusNotFound)
				return
			}
			respondJSONError(w, "Failed to read inventory row: "+err.Error(), http.StatusInternalServerError)
			return
		}

		delta := payload.NewOnHand - current.OnHand
		if delta == 0 {
			respondJSONError(w, "On-hand count is unchanged", http.StatusBadRequest)
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			respondJSONError(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if err := database.SetOnHandInTx(tx, code, payload.NewOnHand); err != nil {
			respondJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		entry := model.LogEntry{
			LoggedAt:      time.Now().Format("2006-01-02 15:04:05"),
			SourceLabel:   "Manual Adjustment",
			ItemCode:      code,
			QuantityDelta: delta,
			Reason:        "Adjustment",
			Employee:      employee,
			Notes:         payload.Notes,
		}
		if err := database.InsertLogEntryInTx(tx, entry); err != nil {
			respondJSONError(w, "Failed to append log entry: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			respondJSONError(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}

		log.Printf("Adjusted %s on-hand %d -> %d by %s", code, current.OnHand, payload.NewOnHand, employee)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":   "Adjustment saved",
			"itemCode":  code,
			"newOnHand": payload.NewOnHand,
			"delta":     delta,
		})
	}
}

// ImportInventoryCSVHandler bulk-loads inventory rows from an uploaded CSV
// with item_code/on_hand columns. Existing codes are overwritten.
func ImportInventoryCSVHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondJSONError(w, "File upload error: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			respondJSONError(w, "A CSV file is required", http.StatusBadRequest)
			return
		}

		file, err := files[0].Open()
		if err != nil {
			respondJSONError(w, "Failed to open uploaded file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		records, err := parsers.ParseInventoryCSV(file)
		if err != nil {
			respondJSONError(w, "CSV parse error: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(records) == 0 {
			respondJSONError(w, "CSV contained no inventory rows", http.StatusBadRequest)
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			respondJSONError(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		for _, rec := range records {
			if err := database.UpsertInventoryInTx(tx, rec); err != nil {
				respondJSONError(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			respondJSONError(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}

		log.Printf("Imported %d inventory row(s) from %s", len(records), files[0].Filename)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":       fmt.Sprintf("Imported %d inventory row(s).", len(records)),
			"rows_imported": len(records),
		})
	}
}
