// Package monitor implements the security monitor: a durable consumer
// of the attempt-event journal that locks a (user, device) scope after
// too many failures inside a sliding window and notifies an
// administrator. The monitor reads through a persisted cursor, so
// events are never missed even when it processes with delay, and a
// restart resumes where it left off.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

const consumerName = "security-monitor"

// EventSource reads the durable attempt-event journal.
type EventSource interface {
	// EventsAfter returns up to limit events with EventID > cursor in
	// journal order.
	EventsAfter(ctx context.Context, cursor int64, limit int) ([]models.AttemptEvent, error)
	// FailureCount counts failed attempts for the scope since the
	// given instant, across all methods.
	FailureCount(ctx context.Context, userID uuid.UUID, deviceID string, since time.Time) (int, error)
}

// LockoutStore persists lockout records and answers lockout checks.
type LockoutStore interface {
	SaveLockout(ctx context.Context, record models.LockoutRecord) error
	ActiveLockout(ctx context.Context, userID uuid.UUID, deviceID string) (models.LockoutRecord, bool, error)
	ClearLockout(ctx context.Context, lockoutID uuid.UUID) error
}

// CursorStore persists the monitor's journal position.
type CursorStore interface {
	Cursor(ctx context.Context, consumer string) (int64, error)
	SetCursor(ctx context.Context, consumer string, cursor int64) error
}

// Notifier delivers administrator notifications for new lockouts.
type Notifier interface {
	NotifyLockout(ctx context.Context, record models.LockoutRecord)
}

// Monitor applies the lockout policy to the attempt stream. The policy
// threshold is distinct from the in-session fallback trigger: that one
// governs escalation to PIN/OTP, this one suspends the scope entirely.
type Monitor struct {
	cfg      config.Lockout
	events   EventSource
	lockouts LockoutStore
	cursors  CursorStore
	notifier Notifier
	logger   *logger.Logger
}

// NewMonitor constructs a [Monitor] applying cfg.
func NewMonitor(cfg config.Lockout, events EventSource, lockouts LockoutStore, cursors CursorStore, notifier Notifier, logger *logger.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		events:   events,
		lockouts: lockouts,
		cursors:  cursors,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessOnce drains one batch of journal events and applies the
// lockout policy. Returns the number of events consumed.
func (m *Monitor) ProcessOnce(ctx context.Context) (int, error) {
	cursor, err := m.cursors.Cursor(ctx, consumerName)
	if err != nil {
		return 0, fmt.Errorf("load monitor cursor: %w", err)
	}

	events, err := m.events.EventsAfter(ctx, cursor, 100)
	if err != nil {
		return 0, fmt.Errorf("read attempt events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	for _, event := range events {
		if event.Outcome != models.OutcomeSuccess {
			if err := m.evaluate(ctx, event); err != nil {
				// Stop without advancing past the failed event so it is
				// re-examined on the next pass.
				return 0, err
			}
		}
		cursor = event.EventID
	}

	if err := m.cursors.SetCursor(ctx, consumerName, cursor); err != nil {
		return 0, fmt.Errorf("advance monitor cursor: %w", err)
	}

	return len(events), nil
}

// evaluate checks the sliding window for the event's scope and creates
// a lockout when the failure threshold is reached. Existing lockouts
// are not extended; already-succeeded sessions are never rolled back.
func (m *Monitor) evaluate(ctx context.Context, event models.AttemptEvent) error {
	if _, locked, err := m.lockouts.ActiveLockout(ctx, event.SubjectUserID, event.DeviceID); err != nil {
		return fmt.Errorf("lockout lookup: %w", err)
	} else if locked {
		return nil
	}

	since := event.At.Add(-m.cfg.Window)
	failures, err := m.events.FailureCount(ctx, event.SubjectUserID, event.DeviceID, since)
	if err != nil {
		return fmt.Errorf("failure count: %w", err)
	}
	if failures < m.cfg.FailureThreshold {
		return nil
	}

	record := models.LockoutRecord{
		LockoutID:     uuid.New(),
		SubjectUserID: event.SubjectUserID,
		DeviceID:      event.DeviceID,
		Reason:        fmt.Sprintf("%d authentication failures within %s", failures, m.cfg.Window),
		LockedAt:      event.At,
		ExpiresAt:     event.At.Add(m.cfg.Duration),
	}

	if err := m.lockouts.SaveLockout(ctx, record); err != nil {
		return fmt.Errorf("save lockout: %w", err)
	}

	m.logger.Warn().
		Str("user", record.SubjectUserID.String()).
		Str("device", record.DeviceID).
		Str("reason", record.Reason).
		Time("expires_at", record.ExpiresAt).
		Msg("lockout created")

	if m.notifier != nil {
		m.notifier.NotifyLockout(ctx, record)
	}

	return nil
}

// Clear removes a lockout manually (administrator action).
func (m *Monitor) Clear(ctx context.Context, lockoutID uuid.UUID) error {
	if err := m.lockouts.ClearLockout(ctx, lockoutID); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	m.logger.Info().Str("lockout", lockoutID.String()).Msg("lockout cleared manually")
	return nil
}
