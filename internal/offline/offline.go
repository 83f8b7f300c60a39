// Package offline implements the offline queue and sync manager: the
// durable buffer completed sessions fall into when the central services
// cannot be reached, and the background drainer that later reconciles
// them. Delivery is at-least-once; the server deduplicates by
// transaction ID, so repeated delivery never double-counts an
// authentication event.
package offline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// ErrSyncFailure marks a transaction whose delivery retries are
// exhausted; it is surfaced for manual reconciliation, never retried
// indefinitely.
var ErrSyncFailure = errors.New("sync failure")

// QueueStore is the durable local queue, keyed by device. Backed by the
// agent's SQLite store so queued sessions survive restarts and power
// loss.
type QueueStore interface {
	Enqueue(ctx context.Context, txn models.OfflineTransaction) error
	Pending(ctx context.Context, deviceID string, limit int) ([]models.OfflineTransaction, error)
	MarkSynced(ctx context.Context, transactionID uuid.UUID) error
	MarkAttempt(ctx context.Context, transactionID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, transactionID uuid.UUID) error
	// Requeue resets a FAILED transaction to PENDING with a fresh retry
	// budget, after an operator resolved the underlying cause.
	Requeue(ctx context.Context, transactionID uuid.UUID) error
	Failed(ctx context.Context, deviceID string) ([]models.OfflineTransaction, error)
}

// Deliverer is the slice of the central-server adapter the queue needs.
type Deliverer interface {
	DeliverRecord(ctx context.Context, record models.SessionRecord) error
	DeliverBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error)
}
