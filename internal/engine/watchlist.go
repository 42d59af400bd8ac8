package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kmoresby/stock-watchlist/internal/models"
	"github.com/kmoresby/stock-watchlist/internal/provider"
)

// WatchlistEngine owns the in-memory set of tracked symbols and their
// latest known snapshots. All access goes through its operations; a single
// coarse lock serializes mutations against refresh passes, which is
// sufficient for the load-mutate-persist-all access pattern.
type WatchlistEngine struct {
	mu     sync.Mutex
	stocks map[string]*models.StockSnapshot

	store       WatchlistStore
	fetcher     SnapshotFetcher
	sink        Sink
	concurrency int
	logger      zerolog.Logger
}

// NewWatchlistEngine builds the engine and loads persisted state. A
// missing or empty store is an empty watchlist, not an error.
func NewWatchlistEngine(store WatchlistStore, fetcher SnapshotFetcher, sink Sink, concurrency int, logger zerolog.Logger) (*WatchlistEngine, error) {
	records, err := store.LoadStockRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist records: %w", err)
	}

	stocks := make(map[string]*models.StockSnapshot, len(records))
	for _, s := range records {
		stocks[s.Symbol] = s
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	return &WatchlistEngine{
		stocks:      stocks,
		store:       store,
		fetcher:     fetcher,
		sink:        sink,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "watchlist").Logger(),
	}, nil
}

// NormalizeSymbol maps raw user input to the canonical ticker form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// AddSymbol starts tracking a symbol. It fails with ErrAlreadyTracked when
// the symbol is present and ErrSymbolNotFound when no initial quote can be
// obtained; in both cases the watchlist is unchanged. On persist failure
// the in-memory insert is rolled back so memory and store stay consistent.
func (e *WatchlistEngine) AddSymbol(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	e.mu.Lock()
	_, exists := e.stocks[symbol]
	e.mu.Unlock()
	if exists {
		return nil, ErrAlreadyTracked
	}

	// Fetch outside the lock; provider calls are the slow path.
	snapshot, err := e.fetcher.FetchSnapshot(ctx, symbol)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			return nil, ErrSymbolNotFound
		}
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	e.mu.Lock()
	if _, exists := e.stocks[symbol]; exists {
		e.mu.Unlock()
		return nil, ErrAlreadyTracked
	}
	e.stocks[symbol] = snapshot
	if err := e.persistLocked(); err != nil {
		delete(e.stocks, symbol)
		e.mu.Unlock()
		return nil, err
	}
	symbols := e.symbolsLocked()
	e.mu.Unlock()

	e.logger.Info().Str("symbol", symbol).Float64("price", snapshot.CurrentPrice).Msg("symbol added to watchlist")
	e.publishChanged(ctx, symbols)
	return snapshot, nil
}

// RemoveSymbol stops tracking a symbol. Fails with ErrNotTracked when the
// symbol is absent. The in-memory removal is rolled back on persist failure.
func (e *WatchlistEngine) RemoveSymbol(ctx context.Context, symbol string) error {
	symbol = NormalizeSymbol(symbol)

	e.mu.Lock()
	snapshot, exists := e.stocks[symbol]
	if !exists {
		e.mu.Unlock()
		return ErrNotTracked
	}
	delete(e.stocks, symbol)
	if err := e.persistLocked(); err != nil {
		e.stocks[symbol] = snapshot
		e.mu.Unlock()
		return err
	}
	symbols := e.symbolsLocked()
	e.mu.Unlock()

	e.logger.Info().Str("symbol", symbol).Msg("symbol removed from watchlist")
	e.publishChanged(ctx, symbols)
	return nil
}

// RefreshAll fetches a fresh snapshot for every tracked symbol with bounded
// parallelism, replaces each successfully refreshed snapshot wholesale, and
// persists the full watchlist once after the pass. A symbol whose fetch
// fails keeps its previous snapshot untouched. On cancellation the pass
// aborts before applying or persisting anything.
func (e *WatchlistEngine) RefreshAll(ctx context.Context) ([]*models.StockSnapshot, error) {
	e.mu.Lock()
	symbols := e.symbolsLocked()
	e.mu.Unlock()

	if len(symbols) == 0 {
		return nil, nil
	}

	type result struct {
		symbol   string
		snapshot *models.StockSnapshot
	}

	results := make(chan result, len(symbols))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snapshot, err := e.fetcher.FetchSnapshot(ctx, symbol)
			if err != nil {
				e.logger.Warn().Err(err).Str("symbol", symbol).Msg("refresh skipped, keeping last known snapshot")
				return
			}
			results <- result{symbol: symbol, snapshot: snapshot}
		}(symbol)
	}
	wg.Wait()
	close(results)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	refreshed := 0
	for r := range results {
		// The symbol may have been removed while its fetch was in flight.
		if _, tracked := e.stocks[r.symbol]; tracked {
			e.stocks[r.symbol] = r.snapshot
			refreshed++
		}
	}

	if err := e.persistLocked(); err != nil {
		// In-memory state keeps the fresh quotes; the store still holds
		// the previous complete pass, which the next successful persist
		// overwrites wholesale.
		return nil, err
	}

	e.logger.Info().Int("tracked", len(symbols)).Int("refreshed", refreshed).Msg("watchlist refresh complete")
	return e.listLocked(), nil
}

// ListAll returns the current snapshots ordered by symbol without forcing
// a refresh.
func (e *WatchlistEngine) ListAll() []*models.StockSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listLocked()
}

// Snapshot returns the current snapshot for a symbol, if tracked.
func (e *WatchlistEngine) Snapshot(symbol string) (*models.StockSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stocks[NormalizeSymbol(symbol)]
	return s, ok
}

// Symbols returns the tracked symbols in sorted order.
func (e *WatchlistEngine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.symbolsLocked()
}

func (e *WatchlistEngine) listLocked() []*models.StockSnapshot {
	stocks := make([]*models.StockSnapshot, 0, len(e.stocks))
	for _, s := range e.stocks {
		stocks = append(stocks, s)
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Symbol < stocks[j].Symbol })
	return stocks
}

func (e *WatchlistEngine) symbolsLocked() []string {
	symbols := make([]string, 0, len(e.stocks))
	for symbol := range e.stocks {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (e *WatchlistEngine) persistLocked() error {
	if err := e.store.ReplaceAllStockRecords(e.listLocked()); err != nil {
		return fmt.Errorf("failed to persist watchlist: %w", err)
	}
	return nil
}

func (e *WatchlistEngine) publishChanged(ctx context.Context, symbols []string) {
	if e.sink == nil {
		return
	}
	event := models.WatchlistChangedEvent{Kind: models.EventWatchlistChanged, Symbols: symbols}
	if err := e.sink.PublishWatchlistChanged(ctx, event); err != nil {
		e.logger.Error().Err(err).Msg("failed to publish watchlist change")
	}
}
