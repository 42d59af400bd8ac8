package database

import (
	"fmt"
	"time"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// UpsertPriceHistory stores a fetched historical series for a symbol,
// updating rows that already exist for a given date.
func (db *DB) UpsertPriceHistory(symbol string, points []models.PricePoint) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (symbol, date, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date) DO UPDATE SET
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range points {
		if _, err := stmt.Exec(symbol, p.Date, p.Close, p.Volume, now); err != nil {
			return fmt.Errorf("failed to insert price history for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceHistory returns up to limit stored points for a symbol in
// chronological order.
func (db *DB) GetPriceHistory(symbol string, limit int) (*models.PriceHistory, error) {
	query := `
		SELECT date, close, volume
		FROM (
			SELECT date, close, volume
			FROM price_history
			WHERE symbol = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	history := &models.PriceHistory{Symbol: symbol}
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		history.Points = append(history.Points, p)
	}

	return history, rows.Err()
}
