package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmoresby/stock-watchlist/internal/engine"
	"github.com/kmoresby/stock-watchlist/internal/models"
	"github.com/kmoresby/stock-watchlist/internal/provider"
)

// Watchlist is the slice of the watchlist engine the refresh task drives.
type Watchlist interface {
	RefreshAll(ctx context.Context) ([]*models.StockSnapshot, error)
	Snapshot(symbol string) (*models.StockSnapshot, bool)
	Symbols() []string
}

// Alerts is the slice of the alert engine the refresh task drives.
type Alerts interface {
	EvaluateActiveAlerts(ctx context.Context, lookup engine.SnapshotLookup) ([]*models.AlertDefinition, error)
}

// HistoryStore persists fetched historical series.
type HistoryStore interface {
	UpsertPriceHistory(symbol string, points []models.PricePoint) error
}

// RefreshTask is the periodic cycle: refresh every tracked symbol, then
// evaluate active alerts against the fresh snapshots, then top up stored
// price history once per historyInterval.
type RefreshTask struct {
	watchlist Watchlist
	alerts    Alerts
	quotes    provider.Provider
	history   HistoryStore
	logger    zerolog.Logger

	historyPeriod   string
	historyInterval time.Duration
	lastHistory     time.Time
}

// NewRefreshTask builds the cycle task. history may be nil to skip the
// history top-up.
func NewRefreshTask(watchlist Watchlist, alerts Alerts, quotes provider.Provider, history HistoryStore, logger zerolog.Logger) *RefreshTask {
	return &RefreshTask{
		watchlist:       watchlist,
		alerts:          alerts,
		quotes:          quotes,
		history:         history,
		logger:          logger.With().Str("component", "refresh_task").Logger(),
		historyPeriod:   "1mo",
		historyInterval: 24 * time.Hour,
	}
}

func (t *RefreshTask) Name() string { return "watchlist refresh" }

// Run executes one cycle. Evaluation resolves snapshots from the watchlist
// first and falls back to a direct provider fetch for alerts on symbols
// that are not tracked.
func (t *RefreshTask) Run(ctx context.Context) error {
	if _, err := t.watchlist.RefreshAll(ctx); err != nil {
		return err
	}

	lookup := func(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
		if snapshot, ok := t.watchlist.Snapshot(symbol); ok {
			return snapshot, nil
		}
		return t.quotes.FetchSnapshot(ctx, symbol)
	}

	triggered, err := t.alerts.EvaluateActiveAlerts(ctx, lookup)
	if err != nil {
		return err
	}
	if len(triggered) > 0 {
		t.logger.Info().Int("count", len(triggered)).Msg("alerts triggered this cycle")
	}

	t.topUpHistory(ctx)
	return nil
}

// topUpHistory refreshes the stored closing-price series for tracked
// symbols. Failures are logged and skipped; history is best-effort and
// must not fail the cycle.
func (t *RefreshTask) topUpHistory(ctx context.Context) {
	if t.history == nil || time.Since(t.lastHistory) < t.historyInterval {
		return
	}
	t.lastHistory = time.Now()

	for _, symbol := range t.watchlist.Symbols() {
		history, err := t.quotes.FetchHistory(ctx, symbol, t.historyPeriod)
		if err != nil {
			t.logger.Warn().Err(err).Str("symbol", symbol).Msg("history top-up skipped")
			continue
		}
		if err := t.history.UpsertPriceHistory(symbol, history.Points); err != nil {
			t.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to store price history")
		}
	}
}
