package database

import (
	"database/sql"
	"fmt"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// LoadStockRecords reads the full persisted watchlist, ordered by symbol.
// An empty table is an empty watchlist, not an error.
func (db *DB) LoadStockRecords() ([]*models.StockSnapshot, error) {
	query := `
		SELECT symbol, current_price, previous_close, day_change, day_change_percent,
		       volume, market_cap, pe_ratio, dividend_yield, week_52_high, week_52_low,
		       last_updated, exchange, company_name
		FROM watchlist_stocks
		ORDER BY symbol ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.StockSnapshot
	for rows.Next() {
		var s models.StockSnapshot
		var marketCap, peRatio, dividendYield, week52High, week52Low sql.NullFloat64
		var exchange, companyName sql.NullString

		err := rows.Scan(
			&s.Symbol, &s.CurrentPrice, &s.PreviousClose, &s.DayChange, &s.DayChangePercent,
			&s.Volume, &marketCap, &peRatio, &dividendYield, &week52High, &week52Low,
			&s.LastUpdated, &exchange, &companyName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist stock: %w", err)
		}

		if marketCap.Valid {
			s.MarketCap = &marketCap.Float64
		}
		if peRatio.Valid {
			s.PERatio = &peRatio.Float64
		}
		if dividendYield.Valid {
			s.DividendYield = &dividendYield.Float64
		}
		if week52High.Valid {
			s.Week52High = &week52High.Float64
		}
		if week52Low.Valid {
			s.Week52Low = &week52Low.Float64
		}
		if exchange.Valid {
			s.Exchange = exchange.String
		}
		if companyName.Valid {
			s.CompanyName = companyName.String
		}

		stocks = append(stocks, &s)
	}

	return stocks, rows.Err()
}

// ReplaceAllStockRecords atomically replaces every persisted watchlist row
// with the given set. The delete and all inserts share one transaction so a
// failed write never leaves a half-updated watchlist behind.
func (db *DB) ReplaceAllStockRecords(stocks []*models.StockSnapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watchlist_stocks`); err != nil {
		return fmt.Errorf("failed to delete existing watchlist stocks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO watchlist_stocks (
			symbol, current_price, previous_close, day_change, day_change_percent,
			volume, market_cap, pe_ratio, dividend_yield, week_52_high, week_52_low,
			last_updated, exchange, company_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range stocks {
		_, err := stmt.Exec(
			s.Symbol, s.CurrentPrice, s.PreviousClose, s.DayChange, s.DayChangePercent,
			s.Volume, s.MarketCap, s.PERatio, s.DividendYield, s.Week52High, s.Week52Low,
			s.LastUpdated, s.Exchange, s.CompanyName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert watchlist stock %s: %w", s.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
