package main

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"

	"jinv/extract"
	"jinv/inventory"
	"jinv/memoupload"
	"jinv/model"
	"jinv/translog"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, extractor extract.TextExtractor) {

	mux.HandleFunc("/api/memo/preview", memoupload.PreviewMemoHandler(dbConn, extractor))
	mux.HandleFunc("/api/memo/commit", memoupload.CommitMemoHandler(dbConn))

	mux.HandleFunc("/api/inventory", inventory.ListInventoryHandler(dbConn))
	mux.HandleFunc("/api/inventory/adjust", inventory.AdjustInventoryHandler(dbConn))
	mux.HandleFunc("/api/inventory/import", inventory.ImportInventoryCSVHandler(dbConn))

	mux.HandleFunc("/api/log", translog.ListLogHandler(dbConn))
	mux.HandleFunc("/api/log/export", translog.ExportLogCSVHandler(dbConn))

	mux.HandleFunc("/api/reasons", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.Reasons)
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetConfigHandler()(w, r)
		case http.MethodPost:
			SaveConfigHandler()(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
}
