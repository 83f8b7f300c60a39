package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
)

// syncRepository deduplicates offline transactions delivered by agents.
// Registration and the ON CONFLICT clause together give the receive
// path exactly-once application over at-least-once delivery.
type syncRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewSyncRepository constructs a [SyncRepository] backed by the provided
// database connection and logger.
func NewSyncRepository(db *DB, logger *logger.Logger) SyncRepository {
	logger.Debug().Msg("creating sync repository")
	return &syncRepository{
		db:     db,
		logger: logger,
	}
}

// RecordTransaction registers transactionID and reports whether it was
// already registered by an earlier delivery.
func (r *syncRepository) RecordTransaction(ctx context.Context, transactionID uuid.UUID, deviceID string) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, recordSyncedTransaction, transactionID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*syncRepository.RecordTransaction").Msg("error: executing statement")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected == 0, nil
}

// deviceRepository is the PostgreSQL-backed implementation of
// [DeviceRepository].
type deviceRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the
// provided database connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	logger.Debug().Msg("creating device repository")
	return &deviceRepository{
		db:     db,
		logger: logger,
	}
}

// SaveDevice upserts a device enrolment record. Re-enrolment refreshes
// the timestamp.
func (r *deviceRepository) SaveDevice(ctx context.Context, deviceID string, enrolledAt time.Time) error {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, saveDevice, deviceID, enrolledAt); err != nil {
		log.Err(err).Str("func", "*deviceRepository.SaveDevice").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// FindDevice reports whether deviceID is enrolled and when.
func (r *deviceRepository) FindDevice(ctx context.Context, deviceID string) (time.Time, bool, error) {
	log := logger.FromContext(ctx)

	var enrolledAt time.Time
	row := r.db.QueryRowContext(ctx, findDevice, deviceID)
	if err := row.Scan(&enrolledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		log.Err(err).Str("func", "*deviceRepository.FindDevice").Msg("error: scanning error")
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return enrolledAt, true, nil
}
