package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

const quoteKeyPrefix = "quote:"

// CachedProvider is a read-through Redis cache in front of another
// Provider. Repeated snapshot lookups within the TTL (alert evaluation
// right after a refresh pass, on-demand reads between cycles) skip the
// network. Cache failures degrade to a direct fetch, never to
// ErrUnavailable. History and search pass through uncached.
type CachedProvider struct {
	inner  Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedProvider wraps inner with a Redis quote cache.
func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "quote_cache").Logger(),
	}
}

// FetchSnapshot returns the cached snapshot when present, otherwise
// fetches from the inner provider and caches the result.
func (c *CachedProvider) FetchSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	key := quoteKeyPrefix + symbol

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var snapshot models.StockSnapshot
		if err := json.Unmarshal(data, &snapshot); err == nil {
			return &snapshot, nil
		}
		c.logger.Warn().Str("symbol", symbol).Msg("discarding unreadable cached quote")
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("quote cache read failed")
	}

	snapshot, err := c.inner.FetchSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("quote cache write failed")
		}
	}
	return snapshot, nil
}

// FetchHistory delegates to the inner provider.
func (c *CachedProvider) FetchHistory(ctx context.Context, symbol, period string) (*models.PriceHistory, error) {
	return c.inner.FetchHistory(ctx, symbol, period)
}

// Search delegates to the inner provider.
func (c *CachedProvider) Search(ctx context.Context, query string) []models.SymbolMatch {
	return c.inner.Search(ctx, query)
}
