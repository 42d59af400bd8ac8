package database

import (
	"database/sql"
	"fmt"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// LoadAlertRecords reads the full persisted alert set in creation order.
func (db *DB) LoadAlertRecords() ([]*models.AlertDefinition, error) {
	query := `
		SELECT id, symbol, alert_type, threshold, status, created_at, triggered_at,
		       sound_enabled, notification_enabled, message
		FROM alerts
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.AlertDefinition
	for rows.Next() {
		var a models.AlertDefinition
		var triggeredAt sql.NullTime
		var message sql.NullString

		err := rows.Scan(
			&a.ID, &a.Symbol, &a.Kind, &a.Threshold, &a.Status, &a.CreatedAt,
			&triggeredAt, &a.SoundEnabled, &a.NotificationEnabled, &message,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if triggeredAt.Valid {
			a.TriggeredAt = &triggeredAt.Time
		}
		if message.Valid {
			a.Message = message.String
		}

		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// ReplaceAllAlertRecords atomically replaces every persisted alert row with
// the given set.
func (db *DB) ReplaceAllAlertRecords(alerts []*models.AlertDefinition) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM alerts`); err != nil {
		return fmt.Errorf("failed to delete existing alerts: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO alerts (
			id, symbol, alert_type, threshold, status, created_at, triggered_at,
			sound_enabled, notification_enabled, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		_, err := stmt.Exec(
			a.ID, a.Symbol, string(a.Kind), a.Threshold, string(a.Status), a.CreatedAt,
			a.TriggeredAt, a.SoundEnabled, a.NotificationEnabled, a.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
