package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Watchlist routes
	api.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", handler.AddSymbol).Methods("POST")
	api.HandleFunc("/watchlist/refresh", handler.RefreshWatchlist).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", handler.RemoveSymbol).Methods("DELETE")
	api.HandleFunc("/watchlist/{symbol}/history", handler.GetHistory).Methods("GET")

	// Symbol search
	api.HandleFunc("/search", handler.SearchSymbols).Methods("GET")

	// Alert routes
	api.HandleFunc("/alerts", handler.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts", handler.CreateAlert).Methods("POST")
	api.HandleFunc("/alerts/evaluate", handler.EvaluateAlerts).Methods("POST")
	api.HandleFunc("/alerts/{id}/disable", handler.DisableAlert).Methods("POST")

	return r
}
