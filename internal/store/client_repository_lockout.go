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

// localLockoutRepository is the SQLite-backed lockout store on the
// agent. The security monitor writes to it and the session state machine
// reads from it, so lockouts hold even while the device is offline.
type localLockoutRepository struct {
	logger *logger.Logger
	db     *LocalDB
}

// NewLocalLockoutRepository constructs the agent's lockout store over db.
func NewLocalLockoutRepository(db *LocalDB, logger *logger.Logger) *localLockoutRepository {
	logger.Debug().Msg("creating local lockout repository")
	return &localLockoutRepository{
		db:     db,
		logger: logger,
	}
}

func (r *localLockoutRepository) SaveLockout(ctx context.Context, record models.LockoutRecord) error {
	if _, err := r.db.ExecContext(ctx, localSaveLockout,
		record.LockoutID.String(),
		record.SubjectUserID.String(),
		record.DeviceID,
		record.Reason,
		record.LockedAt,
		record.ExpiresAt,
		record.ManualClear,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *localLockoutRepository) ActiveLockout(ctx context.Context, userID uuid.UUID, deviceID string) (models.LockoutRecord, bool, error) {
	var record models.LockoutRecord
	var lockoutID, subjectUserID string
	row := r.db.QueryRowContext(ctx, localActiveLockout, userID.String(), deviceID, time.Now())

	if err := row.Scan(
		&lockoutID,
		&subjectUserID,
		&record.DeviceID,
		&record.Reason,
		&record.LockedAt,
		&record.ExpiresAt,
		&record.ManualClear,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LockoutRecord{}, false, nil
		}
		return models.LockoutRecord{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var err error
	if record.LockoutID, err = uuid.Parse(lockoutID); err != nil {
		return models.LockoutRecord{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if record.SubjectUserID, err = uuid.Parse(subjectUserID); err != nil {
		return models.LockoutRecord{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, true, nil
}

func (r *localLockoutRepository) ClearLockout(ctx context.Context, lockoutID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, localClearLockout, lockoutID.String())
	if err != nil {
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
