package engine

import (
	"context"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// WatchlistStore is the persistence contract the watchlist engine needs:
// load everything, replace everything atomically.
type WatchlistStore interface {
	LoadStockRecords() ([]*models.StockSnapshot, error)
	ReplaceAllStockRecords(stocks []*models.StockSnapshot) error
}

// AlertStore is the persistence contract the alert engine needs.
type AlertStore interface {
	LoadAlertRecords() ([]*models.AlertDefinition, error)
	ReplaceAllAlertRecords(alerts []*models.AlertDefinition) error
}

// SnapshotFetcher obtains a fresh quote snapshot for a symbol. A provider
// miss is reported as provider.ErrUnavailable.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error)
}

// SnapshotLookup resolves the current snapshot for a symbol during alert
// evaluation. Backed by the watchlist engine with a direct provider fetch
// as fallback for symbols that are not tracked.
type SnapshotLookup func(ctx context.Context, symbol string) (*models.StockSnapshot, error)

// Sink receives engine-produced events. Delivery is fire-and-forget from
// the engines' perspective; publish errors are logged, never propagated.
type Sink interface {
	PublishAlertTriggered(ctx context.Context, event models.AlertTriggeredEvent) error
	PublishWatchlistChanged(ctx context.Context, event models.WatchlistChangedEvent) error
}
