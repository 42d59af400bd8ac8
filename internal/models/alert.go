package models

import (
	"fmt"
	"time"
)

// AlertKind identifies the rule an alert evaluates. Values outside the
// declared set are rejected at construction, not at comparison time.
type AlertKind string

const (
	AlertPriceAbove    AlertKind = "price_above"
	AlertPriceBelow    AlertKind = "price_below"
	AlertPercentChange AlertKind = "percentage_change"
	AlertVolumeSpike   AlertKind = "volume_spike"
)

// ParseAlertKind validates a raw kind string.
func ParseAlertKind(s string) (AlertKind, error) {
	switch AlertKind(s) {
	case AlertPriceAbove, AlertPriceBelow, AlertPercentChange, AlertVolumeSpike:
		return AlertKind(s), nil
	}
	return "", fmt.Errorf("unknown alert kind: %q", s)
}

// AlertStatus is the alert state machine: active is initial, triggered and
// disabled are terminal.
type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusTriggered AlertStatus = "triggered"
	StatusDisabled  AlertStatus = "disabled"
)

// AlertDefinition is one user-created alert. Owned by the alert engine.
type AlertDefinition struct {
	ID                  string      `json:"id"`
	Symbol              string      `json:"symbol"`
	Kind                AlertKind   `json:"alert_type"`
	Threshold           float64     `json:"threshold"`
	Status              AlertStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	TriggeredAt         *time.Time  `json:"triggered_at,omitempty"`
	SoundEnabled        bool        `json:"sound_enabled"`
	NotificationEnabled bool        `json:"notification_enabled"`
	Message             string      `json:"message,omitempty"`
}

// Describe synthesizes the default alert message from symbol, kind and
// threshold, used when the caller supplies none.
func (k AlertKind) Describe(symbol string, threshold float64) string {
	switch k {
	case AlertPriceAbove:
		return fmt.Sprintf("%s price above %.2f", symbol, threshold)
	case AlertPriceBelow:
		return fmt.Sprintf("%s price below %.2f", symbol, threshold)
	case AlertPercentChange:
		return fmt.Sprintf("%s moved more than %.2f%%", symbol, threshold)
	case AlertVolumeSpike:
		return fmt.Sprintf("%s volume above %.0f", symbol, threshold)
	}
	return fmt.Sprintf("%s alert at %.2f", symbol, threshold)
}
