package handlers

import (
	"encoding/json"
	"net/http"
)

// RegisterRoutes mounts the gateway API on mux.
func RegisterRoutes(mux *http.ServeMux, h *SeriesHandler) {
	mux.HandleFunc("GET /api/{lang}/series/{code}", h.HandleGetSeries)
	mux.HandleFunc("GET /api/{lang}/functions", h.HandleGetFunctions)
	mux.HandleFunc("GET /api/{lang}/functions/{function}", h.HandleGetFunctions)
	mux.HandleFunc("GET /api/{lang}/input/{path...}", h.HandleGetInput)
	mux.HandleFunc("GET /api/{lang}/tables", h.HandleGetTables)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "INE gateway is running"})
	})
}
