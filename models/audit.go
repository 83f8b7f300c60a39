package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one append-only entry in the central audit sink.
// RecordID doubles as the deduplication key: for sessions delivered
// online it is the session ID, for queued sessions it is the offline
// transaction ID, so repeated delivery never double-counts an event.
type AuditRecord struct {
	RecordID      uuid.UUID `json:"record_id"`
	SessionID     uuid.UUID `json:"session_id"`
	SubjectUserID uuid.UUID `json:"subject_user_id"`
	ActingUserID  uuid.UUID `json:"acting_user_id"`
	DeviceID      string    `json:"device_id"`

	Method  AuthMethod   `json:"method"`
	Outcome SessionState `json:"outcome"`

	// ProxyAccess marks sessions performed by a family member; the
	// acting/primary pair above is always explicit in that case.
	ProxyAccess        bool               `json:"proxy_access"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
}

// TableName returns the name of the database table
// associated with the AuditRecord model.
func (a AuditRecord) TableName() string {
	return "audit_records"
}
