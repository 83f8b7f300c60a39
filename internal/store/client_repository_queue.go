package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// localQueueRepository is the SQLite-backed offline transaction queue.
// Entries are written before the session result is returned to the
// kiosk, so a completed authentication can never be lost to a crash.
type localQueueRepository struct {
	logger *logger.Logger
	db     *LocalDB
}

// NewLocalQueueRepository constructs the agent's offline queue over db.
func NewLocalQueueRepository(db *LocalDB, logger *logger.Logger) *localQueueRepository {
	logger.Debug().Msg("creating local queue repository")
	return &localQueueRepository{
		db:     db,
		logger: logger,
	}
}

func (r *localQueueRepository) Enqueue(ctx context.Context, txn models.OfflineTransaction) error {
	if _, err := r.db.ExecContext(ctx, localEnqueueTransaction,
		txn.TransactionID.String(),
		txn.SessionID.String(),
		txn.SubjectUserID.String(),
		txn.DeviceID,
		txn.Payload,
		string(models.SyncPending),
		txn.CreatedAt,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *localQueueRepository) Pending(ctx context.Context, deviceID string, limit int) ([]models.OfflineTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, localPendingTransactions, deviceID, limit)
}

func (r *localQueueRepository) Failed(ctx context.Context, deviceID string) ([]models.OfflineTransaction, error) {
	return r.list(ctx, localFailedTransactions, deviceID)
}

func (r *localQueueRepository) list(ctx context.Context, query string, args ...any) ([]models.OfflineTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var txns []models.OfflineTransaction
	for rows.Next() {
		var txn models.OfflineTransaction
		var transactionID, sessionID, subjectUserID string
		var lastAttempt sql.NullTime
		if err := rows.Scan(
			&transactionID,
			&sessionID,
			&subjectUserID,
			&txn.DeviceID,
			&txn.Payload,
			&txn.SyncStatus,
			&txn.RetryCount,
			&lastAttempt,
			&txn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		if txn.TransactionID, err = uuid.Parse(transactionID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if txn.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if txn.SubjectUserID, err = uuid.Parse(subjectUserID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if lastAttempt.Valid {
			txn.LastSyncAttempt = &lastAttempt.Time
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return txns, nil
}

func (r *localQueueRepository) MarkSynced(ctx context.Context, transactionID uuid.UUID) error {
	return r.exec(ctx, localMarkSynced, transactionID.String())
}

func (r *localQueueRepository) MarkAttempt(ctx context.Context, transactionID uuid.UUID, at time.Time) error {
	return r.exec(ctx, localMarkAttempt, at, transactionID.String())
}

func (r *localQueueRepository) MarkFailed(ctx context.Context, transactionID uuid.UUID) error {
	return r.exec(ctx, localMarkFailed, transactionID.String())
}

func (r *localQueueRepository) Requeue(ctx context.Context, transactionID uuid.UUID) error {
	return r.exec(ctx, localRequeueTransaction, transactionID.String())
}

func (r *localQueueRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}
