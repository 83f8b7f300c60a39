package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the state-machine position of an authentication
// session. Success, Failed, Expired and Locked are terminal.
type SessionState string

const (
	SessionInitiated       SessionState = "INITIATED"
	SessionPrimaryAttempt  SessionState = "PRIMARY_ATTEMPT"
	SessionFallbackOffered SessionState = "FALLBACK_OFFERED"
	SessionFallbackAttempt SessionState = "FALLBACK_ATTEMPT"
	SessionSuccess         SessionState = "SUCCESS"
	SessionFailed          SessionState = "FAILED"
	SessionExpired         SessionState = "EXPIRED"
	SessionLocked          SessionState = "LOCKED"
)

// Terminal reports whether no further attempts are accepted in s.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionSuccess, SessionFailed, SessionExpired, SessionLocked:
		return true
	}
	return false
}

// AuthenticationSession is one bounded attempt to verify the identity
// of a subject, possibly performed by an authorized family proxy.
//
// The session registry hands out each session under a per-session lock;
// attempts are append-only and monotonically time-ordered.
type AuthenticationSession struct {
	SessionID uuid.UUID `json:"session_id"`

	// SubjectUserID is the benefit recipient being verified.
	// ActingUserID equals SubjectUserID unless a family proxy is acting,
	// in which case ProxyAccess is set and AuthorizationLevel carries
	// the proxy's granted level.
	SubjectUserID      uuid.UUID          `json:"subject_user_id"`
	ActingUserID       uuid.UUID          `json:"acting_user_id"`
	ProxyAccess        bool               `json:"proxy_access"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level,omitempty"`

	DeviceID string `json:"device_id"`

	State    SessionState            `json:"state"`
	Attempts []AuthenticationAttempt `json:"attempts"`

	// PrimaryFailures counts consecutive failed primary (face) attempts
	// and drives the fallback decision. OfferedMethods is populated when
	// the session enters FALLBACK_OFFERED.
	PrimaryFailures int          `json:"primary_failures"`
	OfferedMethods  []AuthMethod `json:"offered_methods,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExpiredAt reports whether the session deadline has passed at now.
func (s *AuthenticationSession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AddAttempt appends an attempt and returns it. Callers must hold the
// session's registry lock.
func (s *AuthenticationSession) AddAttempt(method AuthMethod, outcome AttemptOutcome, score float64, reason string, at time.Time) AuthenticationAttempt {
	attempt := AuthenticationAttempt{
		AttemptID:     uuid.New(),
		Method:        method,
		Outcome:       outcome,
		Score:         score,
		FailureReason: reason,
		At:            at,
	}
	s.Attempts = append(s.Attempts, attempt)
	return attempt
}

// FallbackDecision is the outcome of the fallback decision engine.
type FallbackDecision string

const (
	DecisionRetryPrimary  FallbackDecision = "RETRY_PRIMARY"
	DecisionOfferFallback FallbackDecision = "OFFER_FALLBACK"
	DecisionFailSession   FallbackDecision = "FAIL_SESSION"
)

// AttemptResult is returned to the caller after every submitted
// attempt. When the decision is OFFER_FALLBACK, Methods lists the
// fallback methods enabled for the subject.
type AttemptResult struct {
	SessionID uuid.UUID        `json:"session_id"`
	State     SessionState     `json:"state"`
	Outcome   AttemptOutcome   `json:"outcome"`
	Decision  FallbackDecision `json:"decision,omitempty"`
	Methods   []AuthMethod     `json:"methods,omitempty"`
}
