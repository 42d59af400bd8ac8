package models

import "time"

// Event kind constants for the notification sink.
const (
	EventAlertTriggered   = "alert_triggered"
	EventWatchlistChanged = "watchlist_changed"
)

// AlertTriggeredEvent is published when an active alert's condition is met.
type AlertTriggeredEvent struct {
	Kind                string    `json:"kind"`
	Symbol              string    `json:"symbol"`
	Message             string    `json:"message"`
	Threshold           float64   `json:"threshold"`
	AlertKind           AlertKind `json:"alert_kind"`
	SoundEnabled        bool      `json:"sound_enabled"`
	NotificationEnabled bool      `json:"notification_enabled"`
	TriggeredAt         time.Time `json:"triggered_at"`
}

// WatchlistChangedEvent is published when the tracked symbol set changes.
type WatchlistChangedEvent struct {
	Kind    string   `json:"kind"`
	Symbols []string `json:"symbols"`
}
