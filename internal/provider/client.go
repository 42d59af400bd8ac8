package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// ClientConfig holds connection parameters for the market-data gateway.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// defaultClientConfig provides sensible defaults when fields are left unset.
var defaultClientConfig = ClientConfig{
	Timeout: 10 * time.Second,
}

// Client is an HTTP adapter for the market-data gateway. The gateway exposes
// /quote, /candle and /search endpoints; every request carries the API key
// as a token query parameter.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger zerolog.Logger
}

// quoteResponse is the gateway's quote payload. Optional fundamentals are
// absent from the JSON when the upstream source does not supply them.
type quoteResponse struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	PreviousClose float64  `json:"previous_close"`
	Volume        int64    `json:"volume"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	Week52High    *float64 `json:"week_52_high,omitempty"`
	Week52Low     *float64 `json:"week_52_low,omitempty"`
	Exchange      string   `json:"exchange,omitempty"`
	Name          string   `json:"name,omitempty"`
}

// candleResponse is the gateway's historical series payload: parallel
// sequences in chronological order, with a status field marking empty
// results ("no_data").
type candleResponse struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Closes     []float64 `json:"c"`
	Volumes    []int64   `json:"v"`
}

type searchResponse struct {
	Result []models.SymbolMatch `json:"result"`
}

// NewClient creates a market-data client. A zero Timeout falls back to the
// default; the per-call timeout is the adapter-boundary cap the engines
// rely on so a hanging provider stalls one cycle only.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientConfig.Timeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "provider").Logger(),
	}
}

// FetchSnapshot queries the latest quote for a symbol and normalizes it
// into a StockSnapshot, deriving the day-change fields and rounding all
// price-like values to 2 decimal places.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	var quote quoteResponse
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &quote); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("quote fetch failed")
		return nil, ErrUnavailable
	}

	// A zero price means the source had nothing for this symbol.
	if quote.Price <= 0 {
		return nil, ErrUnavailable
	}

	return normalizeQuote(symbol, quote), nil
}

// FetchHistory queries the closing-price series for a symbol over a period
// such as "1mo" and returns it in chronological order.
func (c *Client) FetchHistory(ctx context.Context, symbol, period string) (*models.PriceHistory, error) {
	var candles candleResponse
	params := url.Values{"symbol": {symbol}, "period": {period}}
	if err := c.get(ctx, "/candle", params, &candles); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("history fetch failed")
		return nil, ErrUnavailable
	}

	if candles.Status != "ok" || len(candles.Timestamps) == 0 {
		return nil, ErrUnavailable
	}
	if len(candles.Closes) != len(candles.Timestamps) || len(candles.Volumes) != len(candles.Timestamps) {
		c.logger.Warn().Str("symbol", symbol).Msg("mismatched candle series lengths")
		return nil, ErrUnavailable
	}

	history := &models.PriceHistory{Symbol: symbol}
	for i, ts := range candles.Timestamps {
		history.Points = append(history.Points, models.PricePoint{
			Date:   time.Unix(ts, 0).UTC(),
			Close:  round2(candles.Closes[i]),
			Volume: candles.Volumes[i],
		})
	}
	return history, nil
}

// Search performs a best-effort symbol lookup. Failures yield an empty
// result set, never an error.
func (c *Client) Search(ctx context.Context, query string) []models.SymbolMatch {
	var res searchResponse
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &res); err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("symbol search failed")
		return nil
	}
	return res.Result
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.cfg.APIKey != "" {
		params.Set("token", c.cfg.APIKey)
	}
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizeQuote derives the day-change fields and rounds price-like
// values. day_change_percent is 0 when there is no previous close to
// compare against.
func normalizeQuote(symbol string, q quoteResponse) *models.StockSnapshot {
	price := round2(q.Price)
	prevClose := round2(q.PreviousClose)

	change := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(prevClose))
	changePercent := decimal.Zero
	if prevClose > 0 {
		changePercent = change.Div(decimal.NewFromFloat(prevClose)).Mul(decimal.NewFromInt(100))
	}

	s := &models.StockSnapshot{
		Symbol:           symbol,
		CurrentPrice:     price,
		PreviousClose:    prevClose,
		DayChange:        change.Round(2).InexactFloat64(),
		DayChangePercent: changePercent.Round(2).InexactFloat64(),
		Volume:           q.Volume,
		MarketCap:        q.MarketCap,
		PERatio:          q.PERatio,
		DividendYield:    q.DividendYield,
		Exchange:         q.Exchange,
		CompanyName:      q.Name,
		LastUpdated:      time.Now().UTC(),
	}
	if q.Week52High != nil {
		high := round2(*q.Week52High)
		s.Week52High = &high
	}
	if q.Week52Low != nil {
		low := round2(*q.Week52Low)
		s.Week52Low = &low
	}
	return s
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
