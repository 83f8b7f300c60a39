package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// lockoutRepository is the PostgreSQL-backed implementation of
// [LockoutRepository], used by the central side for administrator review
// and cross-device enforcement of lockouts reported by agents.
type lockoutRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewLockoutRepository constructs a [LockoutRepository] backed by the
// provided database connection and logger.
func NewLockoutRepository(db *DB, logger *logger.Logger) LockoutRepository {
	logger.Debug().Msg("creating lockout repository")
	return &lockoutRepository{
		db:     db,
		logger: logger,
	}
}

// SaveLockout stores a lockout record. Conflicts on lockout_id are
// ignored so agents can safely re-report.
func (r *lockoutRepository) SaveLockout(ctx context.Context, record models.LockoutRecord) error {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, saveLockout,
		record.LockoutID,
		record.SubjectUserID,
		record.DeviceID,
		record.Reason,
		record.LockedAt,
		record.ExpiresAt,
		record.ManualClear,
	); err != nil {
		log.Err(err).Str("func", "*lockoutRepository.SaveLockout").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ActiveLockout returns the live lockout covering the (user, device)
// scope, if any. Expired and manually cleared records are filtered by
// the query itself.
func (r *lockoutRepository) ActiveLockout(ctx context.Context, userID uuid.UUID, deviceID string) (models.LockoutRecord, bool, error) {
	log := logger.FromContext(ctx)

	var record models.LockoutRecord
	row := r.db.QueryRowContext(ctx, findActiveLockout, userID, deviceID)

	if err := row.Scan(
		&record.LockoutID,
		&record.SubjectUserID,
		&record.DeviceID,
		&record.Reason,
		&record.LockedAt,
		&record.ExpiresAt,
		&record.ManualClear,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LockoutRecord{}, false, nil
		}
		log.Err(err).Str("func", "*lockoutRepository.ActiveLockout").Msg("error: scanning error")
		return models.LockoutRecord{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, true, nil
}

// ClearLockout marks a lockout as manually cleared (administrator
// action).
func (r *lockoutRepository) ClearLockout(ctx context.Context, lockoutID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, clearLockout, lockoutID)
	if err != nil {
		log.Err(err).Str("func", "*lockoutRepository.ClearLockout").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoLockoutWasFound
	}

	return nil
}
