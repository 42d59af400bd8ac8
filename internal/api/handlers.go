package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kmoresby/stock-watchlist/internal/engine"
	"github.com/kmoresby/stock-watchlist/internal/models"
	"github.com/kmoresby/stock-watchlist/internal/provider"
)

// HistoryReader serves stored price history.
type HistoryReader interface {
	GetPriceHistory(symbol string, limit int) (*models.PriceHistory, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	watchlist *engine.WatchlistEngine
	alerts    *engine.AlertEngine
	quotes    provider.Provider
	history   HistoryReader
}

// NewHandler creates a new Handler
func NewHandler(watchlist *engine.WatchlistEngine, alerts *engine.AlertEngine, quotes provider.Provider, history HistoryReader) *Handler {
	return &Handler{
		watchlist: watchlist,
		alerts:    alerts,
		quotes:    quotes,
		history:   history,
	}
}

// GetWatchlist handles GET /watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.watchlist.ListAll())
}

// AddSymbol handles POST /watchlist
func (h *Handler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.watchlist.AddSymbol(r.Context(), req.Symbol)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snapshot)
}

// RemoveSymbol handles DELETE /watchlist/{symbol}
func (h *Handler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if err := h.watchlist.RemoveSymbol(r.Context(), symbol); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshWatchlist handles POST /watchlist/refresh
func (h *Handler) RefreshWatchlist(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.watchlist.RefreshAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stocks)
}

// GetHistory handles GET /watchlist/{symbol}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := engine.NormalizeSymbol(mux.Vars(r)["symbol"])

	history, err := h.history.GetPriceHistory(symbol, 90)
	if err == nil && len(history.Points) > 0 {
		respondJSON(w, http.StatusOK, history)
		return
	}

	// Nothing stored yet; go straight to the provider.
	history, err = h.quotes.FetchHistory(r.Context(), symbol, "1mo")
	if err != nil {
		http.Error(w, "history unavailable for "+symbol, http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// SearchSymbols handles GET /search?q=
func (h *Handler) SearchSymbols(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	matches := h.quotes.Search(r.Context(), query)
	if matches == nil {
		matches = []models.SymbolMatch{}
	}
	respondJSON(w, http.StatusOK, matches)
}

// GetAlerts handles GET /alerts with an optional status filter
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	var alerts []*models.AlertDefinition
	switch r.URL.Query().Get("status") {
	case "active":
		alerts = h.alerts.ListActive()
	case "triggered":
		alerts = h.alerts.ListTriggered()
	case "":
		alerts = h.alerts.ListAll()
	default:
		http.Error(w, "unknown status filter", http.StatusBadRequest)
		return
	}
	if alerts == nil {
		alerts = []*models.AlertDefinition{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

// CreateAlert handles POST /alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol              string  `json:"symbol"`
		Kind                string  `json:"alert_type"`
		Threshold           float64 `json:"threshold"`
		SoundEnabled        bool    `json:"sound_enabled"`
		NotificationEnabled bool    `json:"notification_enabled"`
		Message             string  `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	alert, err := h.alerts.CreateAlert(r.Context(), engine.CreateAlertParams{
		Symbol:              req.Symbol,
		Kind:                req.Kind,
		Threshold:           req.Threshold,
		SoundEnabled:        req.SoundEnabled,
		NotificationEnabled: req.NotificationEnabled,
		Message:             req.Message,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, alert)
}

// DisableAlert handles POST /alerts/{id}/disable
func (h *Handler) DisableAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.alerts.DisableAlert(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EvaluateAlerts handles POST /alerts/evaluate, an on-demand evaluation
// pass using the same snapshot lookup as the background cycle.
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	lookup := func(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
		if snapshot, ok := h.watchlist.Snapshot(symbol); ok {
			return snapshot, nil
		}
		return h.quotes.FetchSnapshot(ctx, symbol)
	}

	triggered, err := h.alerts.EvaluateActiveAlerts(r.Context(), lookup)
	if err != nil {
		respondError(w, err)
		return
	}
	if triggered == nil {
		triggered = []*models.AlertDefinition{}
	}
	respondJSON(w, http.StatusOK, triggered)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrAlreadyTracked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, engine.ErrNotTracked),
		errors.Is(err, engine.ErrSymbolNotFound),
		errors.Is(err, engine.ErrAlertNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrInvalidAlertSpec):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
