package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// AlertEngine owns the set of alert definitions and drives the
// active → triggered / active → disabled state machine. Alerts are kept in
// creation order so evaluation is deterministic for a fixed input set.
type AlertEngine struct {
	mu     sync.Mutex
	alerts []*models.AlertDefinition
	byID   map[string]*models.AlertDefinition

	store  AlertStore
	sink   Sink
	logger zerolog.Logger
}

// CreateAlertParams carries the caller-supplied fields for a new alert.
type CreateAlertParams struct {
	Symbol              string
	Kind                string
	Threshold           float64
	SoundEnabled        bool
	NotificationEnabled bool
	Message             string
}

// NewAlertEngine builds the engine and loads persisted alerts. A missing
// or empty store is an empty alert set.
func NewAlertEngine(store AlertStore, sink Sink, logger zerolog.Logger) (*AlertEngine, error) {
	records, err := store.LoadAlertRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load alert records: %w", err)
	}

	byID := make(map[string]*models.AlertDefinition, len(records))
	for _, a := range records {
		byID[a.ID] = a
	}

	return &AlertEngine{
		alerts: records,
		byID:   byID,
		store:  store,
		sink:   sink,
		logger: logger.With().Str("component", "alerts").Logger(),
	}, nil
}

// CreateAlert validates the spec, generates a collision-free id, and
// persists the full alert set. The new alert starts active. The in-memory
// insert is rolled back on persist failure.
func (e *AlertEngine) CreateAlert(ctx context.Context, params CreateAlertParams) (*models.AlertDefinition, error) {
	kind, err := models.ParseAlertKind(params.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlertSpec, err)
	}

	symbol := NormalizeSymbol(params.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidAlertSpec)
	}
	if math.IsNaN(params.Threshold) || math.IsInf(params.Threshold, 0) || params.Threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be a positive number", ErrInvalidAlertSpec)
	}

	now := time.Now().UTC()
	message := params.Message
	if message == "" {
		message = kind.Describe(symbol, params.Threshold)
	}

	alert := &models.AlertDefinition{
		ID:                  newAlertID(symbol, kind, now),
		Symbol:              symbol,
		Kind:                kind,
		Threshold:           params.Threshold,
		Status:              models.StatusActive,
		CreatedAt:           now,
		SoundEnabled:        params.SoundEnabled,
		NotificationEnabled: params.NotificationEnabled,
		Message:             message,
	}

	e.mu.Lock()
	e.alerts = append(e.alerts, alert)
	e.byID[alert.ID] = alert
	if err := e.persistLocked(); err != nil {
		e.alerts = e.alerts[:len(e.alerts)-1]
		delete(e.byID, alert.ID)
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Float64("threshold", params.Threshold).
		Msg("alert created")
	return alert, nil
}

// DisableAlert transitions active → disabled. It fails with
// ErrAlertNotFound for an unknown id and with ErrInvalidTransition when
// the alert is not active: disabled and triggered are terminal states and
// silently accepting a second disable would hide a client bug.
func (e *AlertEngine) DisableAlert(ctx context.Context, id string) error {
	e.mu.Lock()
	alert, ok := e.byID[id]
	if !ok {
		e.mu.Unlock()
		return ErrAlertNotFound
	}
	if alert.Status != models.StatusActive {
		e.mu.Unlock()
		return fmt.Errorf("%w: alert %s is %s", ErrInvalidTransition, id, alert.Status)
	}

	alert.Status = models.StatusDisabled
	if err := e.persistLocked(); err != nil {
		alert.Status = models.StatusActive
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Info().Str("alert_id", id).Msg("alert disabled")
	return nil
}

// EvaluateActiveAlerts checks every active alert against the current
// snapshot for its symbol. An alert whose snapshot cannot be obtained is
// skipped with no state change. Satisfied alerts transition to triggered
// exactly once, the full set is persisted in one write if anything
// changed, and one event per newly triggered alert is handed to the sink.
func (e *AlertEngine) EvaluateActiveAlerts(ctx context.Context, lookup SnapshotLookup) ([]*models.AlertDefinition, error) {
	e.mu.Lock()
	active := make([]*models.AlertDefinition, 0, len(e.alerts))
	for _, a := range e.alerts {
		if a.Status == models.StatusActive {
			active = append(active, a)
		}
	}
	e.mu.Unlock()

	if len(active) == 0 {
		return nil, nil
	}

	// Resolve snapshots outside the lock; the lookup may hit the network
	// for symbols that are not on the watchlist.
	snapshots := make(map[string]*models.StockSnapshot)
	for _, a := range active {
		if _, done := snapshots[a.Symbol]; done {
			continue
		}
		snapshot, err := lookup(ctx, a.Symbol)
		if err != nil {
			e.logger.Warn().Err(err).Str("symbol", a.Symbol).Msg("no snapshot for alert evaluation, skipping")
			continue
		}
		snapshots[a.Symbol] = snapshot
	}

	now := time.Now().UTC()

	e.mu.Lock()
	var triggered []*models.AlertDefinition
	for _, a := range e.alerts {
		if a.Status != models.StatusActive {
			continue
		}
		snapshot, ok := snapshots[a.Symbol]
		if !ok {
			continue
		}
		if !conditionMet(a, snapshot) {
			continue
		}
		ts := now
		a.Status = models.StatusTriggered
		a.TriggeredAt = &ts
		triggered = append(triggered, a)
	}

	if len(triggered) > 0 {
		if err := e.persistLocked(); err != nil {
			for _, a := range triggered {
				a.Status = models.StatusActive
				a.TriggeredAt = nil
			}
			e.mu.Unlock()
			return nil, err
		}
	}
	e.mu.Unlock()

	for _, a := range triggered {
		e.logger.Info().
			Str("alert_id", a.ID).
			Str("symbol", a.Symbol).
			Float64("threshold", a.Threshold).
			Msg("alert triggered")
		e.publishTriggered(ctx, a)
	}
	return triggered, nil
}

// ListActive returns the active alerts in creation order.
func (e *AlertEngine) ListActive() []*models.AlertDefinition {
	return e.listByStatus(models.StatusActive)
}

// ListTriggered returns the triggered alerts in creation order.
func (e *AlertEngine) ListTriggered() []*models.AlertDefinition {
	return e.listByStatus(models.StatusTriggered)
}

// ListAll returns every alert in creation order.
func (e *AlertEngine) ListAll() []*models.AlertDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.AlertDefinition, len(e.alerts))
	copy(out, e.alerts)
	return out
}

func (e *AlertEngine) listByStatus(status models.AlertStatus) []*models.AlertDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*models.AlertDefinition
	for _, a := range e.alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func (e *AlertEngine) persistLocked() error {
	if err := e.store.ReplaceAllAlertRecords(e.alerts); err != nil {
		return fmt.Errorf("failed to persist alerts: %w", err)
	}
	return nil
}

func (e *AlertEngine) publishTriggered(ctx context.Context, a *models.AlertDefinition) {
	if e.sink == nil {
		return
	}
	event := models.AlertTriggeredEvent{
		Kind:                models.EventAlertTriggered,
		Symbol:              a.Symbol,
		Message:             a.Message,
		Threshold:           a.Threshold,
		AlertKind:           a.Kind,
		SoundEnabled:        a.SoundEnabled,
		NotificationEnabled: a.NotificationEnabled,
		TriggeredAt:         *a.TriggeredAt,
	}
	if err := e.sink.PublishAlertTriggered(ctx, event); err != nil {
		e.logger.Error().Err(err).Str("alert_id", a.ID).Msg("failed to publish alert trigger")
	}
}

// conditionMet applies the alert rule to a snapshot.
func conditionMet(a *models.AlertDefinition, s *models.StockSnapshot) bool {
	switch a.Kind {
	case models.AlertPriceAbove:
		return s.CurrentPrice >= a.Threshold
	case models.AlertPriceBelow:
		return s.CurrentPrice <= a.Threshold
	case models.AlertPercentChange:
		return math.Abs(s.DayChangePercent) >= a.Threshold
	case models.AlertVolumeSpike:
		return float64(s.Volume) >= a.Threshold
	}
	return false
}

// newAlertID combines symbol, kind and creation time with a random suffix.
// Symbol+kind+timestamp alone collides for alerts created within the same
// second; the suffix makes ids collision-free.
func newAlertID(symbol string, kind models.AlertKind, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d-%s", symbol, kind, now.Unix(), uuid.NewString()[:8])
}
