package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPIssue records a one-time code sent to a user. Only a hash of the
// code is stored; validation succeeds at most once and only before
// ExpiresAt.
type OTPIssue struct {
	IssueID   int64     `json:"issue_id"`
	UserID    uuid.UUID `json:"user_id"`
	CodeHash  string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}

// Usable reports whether the issue can still validate a code at now.
func (o OTPIssue) Usable(now time.Time) bool {
	return !o.Consumed && now.Before(o.ExpiresAt)
}
