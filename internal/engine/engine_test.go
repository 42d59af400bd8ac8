package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// End-to-end cycle: a price-above alert stays active while the quote is
// under the threshold and fires exactly once after a refresh crosses it.
func TestWatchlistAndAlertCycle(t *testing.T) {
	ctx := context.Background()

	stockStore := &fakeWatchlistStore{}
	alertStore := &fakeAlertStore{}
	fetcher := newFakeFetcher()
	sink := &fakeSink{}

	watchlist, err := NewWatchlistEngine(stockStore, fetcher, sink, 2, zerolog.Nop())
	require.NoError(t, err)
	alerts, err := NewAlertEngine(alertStore, sink, zerolog.Nop())
	require.NoError(t, err)

	lookup := func(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
		if snapshot, ok := watchlist.Snapshot(symbol); ok {
			return snapshot, nil
		}
		return fetcher.FetchSnapshot(ctx, symbol)
	}

	fetcher.set(quote("AAPL", 150, 148, 1_000_000))
	_, err = watchlist.AddSymbol(ctx, "AAPL")
	require.NoError(t, err)

	alert, err := alerts.CreateAlert(ctx, CreateAlertParams{
		Symbol: "AAPL", Kind: "price_above", Threshold: 200, NotificationEnabled: true,
	})
	require.NoError(t, err)

	// Below threshold: nothing fires.
	_, err = watchlist.RefreshAll(ctx)
	require.NoError(t, err)
	triggered, err := alerts.EvaluateActiveAlerts(ctx, lookup)
	require.NoError(t, err)
	assert.Empty(t, triggered)
	assert.Equal(t, models.StatusActive, alert.Status)

	// The quote crosses the threshold on the next cycle.
	fetcher.set(quote("AAPL", 201, 150, 1_200_000))
	_, err = watchlist.RefreshAll(ctx)
	require.NoError(t, err)

	triggered, err = alerts.EvaluateActiveAlerts(ctx, lookup)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, alert.ID, triggered[0].ID)
	assert.Equal(t, models.StatusTriggered, alert.Status)

	require.Len(t, sink.Triggered, 1)
	assert.Equal(t, "AAPL", sink.Triggered[0].Symbol)
	assert.Equal(t, 200.0, sink.Triggered[0].Threshold)

	// Further cycles leave the fired alert alone and emit nothing new.
	_, err = watchlist.RefreshAll(ctx)
	require.NoError(t, err)
	triggered, err = alerts.EvaluateActiveAlerts(ctx, lookup)
	require.NoError(t, err)
	assert.Empty(t, triggered)
	assert.Len(t, sink.Triggered, 1)

	// Persisted collections round-trip into fresh engines.
	watchlist2, err := NewWatchlistEngine(stockStore, fetcher, sink, 2, zerolog.Nop())
	require.NoError(t, err)
	alerts2, err := NewAlertEngine(alertStore, sink, zerolog.Nop())
	require.NoError(t, err)

	restored := watchlist2.ListAll()
	require.Len(t, restored, 1)
	assert.Equal(t, 201.0, restored[0].CurrentPrice)

	restoredAlerts := alerts2.ListTriggered()
	require.Len(t, restoredAlerts, 1)
	assert.Equal(t, alert.ID, restoredAlerts[0].ID)
}

// Alerts on symbols off the watchlist fall back to a direct provider fetch.
func TestEvaluationFallbackFetch(t *testing.T) {
	ctx := context.Background()

	stockStore := &fakeWatchlistStore{}
	fetcher := newFakeFetcher()
	sink := &fakeSink{}

	watchlist, err := NewWatchlistEngine(stockStore, fetcher, sink, 2, zerolog.Nop())
	require.NoError(t, err)
	alerts, err := NewAlertEngine(&fakeAlertStore{}, sink, zerolog.Nop())
	require.NoError(t, err)

	lookup := func(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
		if snapshot, ok := watchlist.Snapshot(symbol); ok {
			return snapshot, nil
		}
		return fetcher.FetchSnapshot(ctx, symbol)
	}

	// NVDA is not tracked but its quote is obtainable.
	fetcher.set(quote("NVDA", 950, 900, 4_000_000))
	_, err = alerts.CreateAlert(ctx, CreateAlertParams{
		Symbol: "NVDA", Kind: "price_above", Threshold: 900,
	})
	require.NoError(t, err)

	triggered, err := alerts.EvaluateActiveAlerts(ctx, lookup)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, "NVDA", triggered[0].Symbol)
	assert.Empty(t, watchlist.ListAll())
}
