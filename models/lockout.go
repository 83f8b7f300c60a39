package models

import (
	"time"

	"github.com/google/uuid"
)

// LockoutRecord suspends authentication for a (user, device) scope
// after the security monitor sees too many failures inside its window.
// A record with ManualClear=true is ignored regardless of ExpiresAt.
type LockoutRecord struct {
	LockoutID     uuid.UUID `json:"lockout_id"`
	SubjectUserID uuid.UUID `json:"subject_user_id"`
	DeviceID      string    `json:"device_id"`
	Reason        string    `json:"reason"`
	LockedAt      time.Time `json:"locked_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	ManualClear   bool      `json:"manual_clear"`
}

// Live reports whether the lockout still blocks new sessions at now.
func (l LockoutRecord) Live(now time.Time) bool {
	return !l.ManualClear && now.Before(l.ExpiresAt)
}

// TableName returns the name of the database table
// associated with the LockoutRecord model.
func (l LockoutRecord) TableName() string {
	return "lockout_records"
}
