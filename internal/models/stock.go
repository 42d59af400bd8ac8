package models

import "time"

// StockSnapshot holds the latest known quote and fundamentals for one
// tracked symbol. Snapshots are owned by the watchlist engine and are
// always replaced wholesale on refresh, never merged field by field.
type StockSnapshot struct {
	Symbol           string    `json:"symbol"`
	CurrentPrice     float64   `json:"current_price"`
	PreviousClose    float64   `json:"previous_close"`
	DayChange        float64   `json:"day_change"`
	DayChangePercent float64   `json:"day_change_percent"`
	Volume           int64     `json:"volume"`
	MarketCap        *float64  `json:"market_cap,omitempty"`
	PERatio          *float64  `json:"pe_ratio,omitempty"`
	DividendYield    *float64  `json:"dividend_yield,omitempty"`
	Week52High       *float64  `json:"week_52_high,omitempty"`
	Week52Low        *float64  `json:"week_52_low,omitempty"`
	Exchange         string    `json:"exchange,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// PricePoint is one entry in a historical closing-price series.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceHistory is a chronologically ordered closing-price series for a symbol.
type PriceHistory struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// SymbolMatch is a single result from a best-effort symbol search.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Sector   string `json:"sector,omitempty"`
}
