package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kmoresby/stock-watchlist/internal/models"
	"github.com/kmoresby/stock-watchlist/internal/provider"
)

// fakeWatchlistStore implements WatchlistStore in memory.
type fakeWatchlistStore struct {
	records []*models.StockSnapshot

	ReplaceCalls int
	FailReplace  error
}

func (s *fakeWatchlistStore) LoadStockRecords() ([]*models.StockSnapshot, error) {
	return s.records, nil
}

func (s *fakeWatchlistStore) ReplaceAllStockRecords(stocks []*models.StockSnapshot) error {
	s.ReplaceCalls++
	if s.FailReplace != nil {
		return s.FailReplace
	}
	s.records = make([]*models.StockSnapshot, len(stocks))
	copy(s.records, stocks)
	return nil
}

// fakeAlertStore implements AlertStore in memory.
type fakeAlertStore struct {
	records []*models.AlertDefinition

	ReplaceCalls int
	FailReplace  error
}

func (s *fakeAlertStore) LoadAlertRecords() ([]*models.AlertDefinition, error) {
	return s.records, nil
}

func (s *fakeAlertStore) ReplaceAllAlertRecords(alerts []*models.AlertDefinition) error {
	s.ReplaceCalls++
	if s.FailReplace != nil {
		return s.FailReplace
	}
	s.records = make([]*models.AlertDefinition, len(alerts))
	copy(s.records, alerts)
	return nil
}

// fakeFetcher serves canned snapshots per symbol; symbols not present are
// unavailable.
type fakeFetcher struct {
	mu        sync.Mutex
	snapshots map[string]*models.StockSnapshot
	FetchCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{snapshots: make(map[string]*models.StockSnapshot)}
}

func (f *fakeFetcher) set(s *models.StockSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[s.Symbol] = s
}

func (f *fakeFetcher) unset(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, symbol)
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	s, ok := f.snapshots[symbol]
	if !ok {
		return nil, provider.ErrUnavailable
	}
	// Return a copy so tests can compare against retained snapshots.
	out := *s
	return &out, nil
}

// fakeSink records published events.
type fakeSink struct {
	mu               sync.Mutex
	Triggered        []models.AlertTriggeredEvent
	WatchlistChanges []models.WatchlistChangedEvent
}

func (s *fakeSink) PublishAlertTriggered(ctx context.Context, event models.AlertTriggeredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Triggered = append(s.Triggered, event)
	return nil
}

func (s *fakeSink) PublishWatchlistChanged(ctx context.Context, event models.WatchlistChangedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WatchlistChanges = append(s.WatchlistChanges, event)
	return nil
}

func quote(symbol string, price, prevClose float64, volume int64) *models.StockSnapshot {
	change := price - prevClose
	percent := 0.0
	if prevClose > 0 {
		percent = change / prevClose * 100
	}
	return &models.StockSnapshot{
		Symbol:           symbol,
		CurrentPrice:     price,
		PreviousClose:    prevClose,
		DayChange:        change,
		DayChangePercent: percent,
		Volume:           volume,
		LastUpdated:      time.Now().UTC(),
	}
}

var errStoreDown = fmt.Errorf("store unreachable")
