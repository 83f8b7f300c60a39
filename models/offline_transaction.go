package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the delivery state of an offline transaction.
type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncSynced  SyncStatus = "SYNCED"
	SyncFailed  SyncStatus = "FAILED"
)

// OfflineTransaction wraps a completed session for deferred delivery to
// the central services. It is created when the audit sink cannot be
// reached at session completion and marked SYNCED once the server
// acknowledges receipt. The server deduplicates by TransactionID, so
// delivery is safe to repeat.
type OfflineTransaction struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	SessionID     uuid.UUID `json:"session_id"`
	SubjectUserID uuid.UUID `json:"subject_user_id"`
	DeviceID      string    `json:"device_id"`

	// Payload is the AES-256-GCM encrypted completed session.
	Payload []byte `json:"payload"`

	SyncStatus      SyncStatus `json:"sync_status"`
	RetryCount      int        `json:"retry_count"`
	LastSyncAttempt *time.Time `json:"last_sync_attempt,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ShouldRetry reports whether another delivery attempt is allowed under
// the given retry budget.
func (t OfflineTransaction) ShouldRetry(maxRetries int) bool {
	return t.SyncStatus == SyncPending && t.RetryCount < maxRetries
}

// TableName returns the name of the local queue table associated with
// the OfflineTransaction model.
func (t OfflineTransaction) TableName() string {
	return "offline_transactions"
}
