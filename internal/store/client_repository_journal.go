package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// localJournalRepository is the SQLite-backed attempt-event journal plus
// the consumer cursor table. It serves both writers (the session state
// machine appends every attempt before returning its result) and the
// security monitor, which reads through a persisted cursor.
type localJournalRepository struct {
	logger *logger.Logger
	db     *LocalDB
}

// NewLocalJournalRepository constructs the agent's attempt journal over db.
func NewLocalJournalRepository(db *LocalDB, logger *logger.Logger) *localJournalRepository {
	logger.Debug().Msg("creating local journal repository")
	return &localJournalRepository{
		db:     db,
		logger: logger,
	}
}

// Append persists event and returns it with the journal-assigned
// EventID. The write completes before the attempt result reaches the
// kiosk, so the monitor can never miss an attempt.
func (r *localJournalRepository) Append(ctx context.Context, event models.AttemptEvent) (models.AttemptEvent, error) {
	result, err := r.db.ExecContext(ctx, localAppendAttemptEvent,
		event.SessionID.String(),
		event.SubjectUserID.String(),
		event.DeviceID,
		string(event.Method),
		string(event.Outcome),
		event.At,
	)
	if err != nil {
		return models.AttemptEvent{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	event.EventID, err = result.LastInsertId()
	if err != nil {
		return models.AttemptEvent{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return event, nil
}

// EventsAfter returns up to limit events with EventID > cursor in
// journal order.
func (r *localJournalRepository) EventsAfter(ctx context.Context, cursor int64, limit int) ([]models.AttemptEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, localEventsAfter, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var events []models.AttemptEvent
	for rows.Next() {
		var event models.AttemptEvent
		var sessionID, subjectUserID string
		if err := rows.Scan(
			&event.EventID,
			&sessionID,
			&subjectUserID,
			&event.DeviceID,
			&event.Method,
			&event.Outcome,
			&event.At,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		if event.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if event.SubjectUserID, err = uuid.Parse(subjectUserID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return events, nil
}

// FailureCount counts failed attempts for the (user, device) scope since
// the given instant, across all methods.
func (r *localJournalRepository) FailureCount(ctx context.Context, userID uuid.UUID, deviceID string, since time.Time) (int, error) {
	var count int
	row := r.db.QueryRowContext(ctx, localFailureCount, userID.String(), deviceID, since)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return count, nil
}

// Cursor returns the consumer's stored journal position, zero when the
// consumer has never run.
func (r *localJournalRepository) Cursor(ctx context.Context, consumer string) (int64, error) {
	var cursor int64
	row := r.db.QueryRowContext(ctx, localGetCursor, consumer)
	if err := row.Scan(&cursor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return cursor, nil
}

// SetCursor stores the consumer's journal position.
func (r *localJournalRepository) SetCursor(ctx context.Context, consumer string, cursor int64) error {
	if _, err := r.db.ExecContext(ctx, localSetCursor, consumer, cursor); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
