package offline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// memQueue is an in-memory QueueStore for tests.
type memQueue struct {
	transactions []models.OfflineTransaction

	enqueueErr error
}

func (q *memQueue) Enqueue(_ context.Context, txn models.OfflineTransaction) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.transactions = append(q.transactions, txn)
	return nil
}

func (q *memQueue) Pending(_ context.Context, deviceID string, limit int) ([]models.OfflineTransaction, error) {
	var out []models.OfflineTransaction
	for _, txn := range q.transactions {
		if txn.DeviceID == deviceID && txn.SyncStatus == models.SyncPending {
			out = append(out, txn)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memQueue) Failed(_ context.Context, deviceID string) ([]models.OfflineTransaction, error) {
	var out []models.OfflineTransaction
	for _, txn := range q.transactions {
		if txn.DeviceID == deviceID && txn.SyncStatus == models.SyncFailed {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (q *memQueue) MarkSynced(_ context.Context, transactionID uuid.UUID) error {
	return q.update(transactionID, func(txn *models.OfflineTransaction) {
		txn.SyncStatus = models.SyncSynced
	})
}

func (q *memQueue) MarkAttempt(_ context.Context, transactionID uuid.UUID, at time.Time) error {
	return q.update(transactionID, func(txn *models.OfflineTransaction) {
		txn.RetryCount++
		txn.LastSyncAttempt = &at
	})
}

func (q *memQueue) MarkFailed(_ context.Context, transactionID uuid.UUID) error {
	return q.update(transactionID, func(txn *models.OfflineTransaction) {
		txn.SyncStatus = models.SyncFailed
	})
}

func (q *memQueue) Requeue(_ context.Context, transactionID uuid.UUID) error {
	return q.update(transactionID, func(txn *models.OfflineTransaction) {
		txn.SyncStatus = models.SyncPending
		txn.RetryCount = 0
	})
}

func (q *memQueue) update(transactionID uuid.UUID, fn func(txn *models.OfflineTransaction)) error {
	for i := range q.transactions {
		if q.transactions[i].TransactionID == transactionID {
			fn(&q.transactions[i])
			return nil
		}
	}
	return ErrSyncFailure
}

// fakeCipher is a reversible stand-in for the AES payload cipher.
type fakeCipher struct {
	encryptErr error
}

func (f *fakeCipher) Encrypt(plaintext []byte) ([]byte, error) {
	if f.encryptErr != nil {
		return nil, f.encryptErr
	}
	return append([]byte("sealed:"), plaintext...), nil
}

func (f *fakeCipher) Decrypt(blob []byte) ([]byte, error) {
	return blob[len("sealed:"):], nil
}

func completedSession(deviceID string) models.SessionRecord {
	sessionID := uuid.New()
	return models.SessionRecord{
		Session: models.AuthenticationSession{
			SessionID:     sessionID,
			SubjectUserID: uuid.New(),
			DeviceID:      deviceID,
			State:         models.SessionSuccess,
		},
		Audit: models.AuditRecord{
			RecordID:  sessionID,
			SessionID: sessionID,
			DeviceID:  deviceID,
			Outcome:   models.SessionSuccess,
		},
	}
}
