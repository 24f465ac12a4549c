package main

import (
	"net/http"

	"tradedash/dashboard"
	"tradedash/loader"

	"github.com/jmoiron/sqlx"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB) {
	mux.HandleFunc("/", dashboard.PageHandler(dbConn))

	mux.HandleFunc("/api/summary", dashboard.SummaryHandler(dbConn))
	mux.HandleFunc("/api/charts/", dashboard.ChartHandler(dbConn))
	mux.HandleFunc("/api/filters", dashboard.FilterOptionsHandler(dbConn))

	mux.HandleFunc("/api/dataset", dashboard.DatasetHandler())
	mux.HandleFunc("/api/dataset/reload", loader.ReloadHandler(dbConn))

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetConfigHandler()(w, r)
		case http.MethodPost:
			SaveConfigHandler(dbConn)(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
}
