// Package provider wraps the external market-data source behind a uniform
// contract. All operations are read-only with respect to engine state and
// collapse every transient failure (unknown symbol, unreachable source,
// empty payload, timeout) into ErrUnavailable so callers can treat a miss
// as "no update this cycle" rather than a fatal error.
package provider

import (
	"context"
	"errors"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// ErrUnavailable is returned when no quote data can be obtained for a
// symbol. It never wraps a caller error; it is the whole outcome.
var ErrUnavailable = errors.New("quote data unavailable")

// Provider is the normalized market-data contract consumed by the engines
// and the API layer.
type Provider interface {
	// FetchSnapshot returns the latest normalized quote for a symbol,
	// or ErrUnavailable.
	FetchSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error)
	// FetchHistory returns a chronological closing-price series for a
	// symbol over a period such as "1mo", or ErrUnavailable.
	FetchHistory(ctx context.Context, symbol, period string) (*models.PriceHistory, error)
	// Search performs a best-effort symbol lookup. It returns an empty
	// slice when nothing matches, never an error.
	Search(ctx context.Context, query string) []models.SymbolMatch
}
