package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthMethod is the mechanism a single authentication attempt used.
type AuthMethod string

const (
	MethodFaceID AuthMethod = "FACE_ID"
	MethodPIN    AuthMethod = "PIN"
	MethodOTP    AuthMethod = "OTP"
)

// AttemptOutcome is the result of a single attempt. A capability call
// that exceeds its deadline is recorded as TIMEOUT and counted against
// the attempt budget exactly like FAILURE.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "SUCCESS"
	OutcomeFailure AttemptOutcome = "FAILURE"
	OutcomeTimeout AttemptOutcome = "TIMEOUT"
)

// AuthenticationAttempt is one attempt within a session. Attempts are
// append-only and immutable once recorded.
type AuthenticationAttempt struct {
	AttemptID     uuid.UUID      `json:"attempt_id"`
	Method        AuthMethod     `json:"method"`
	Outcome       AttemptOutcome `json:"outcome"`
	Score         float64        `json:"score,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	At            time.Time      `json:"at"`
}

// Failed reports whether the attempt counts against failure budgets.
func (a AuthenticationAttempt) Failed() bool {
	return a.Outcome != OutcomeSuccess
}

// AttemptEvent is the durable journal row the security monitor consumes.
// EventID is assigned by the journal (monotonic) and serves as the
// consumer cursor, so the monitor never misses an event even when it
// processes with delay.
type AttemptEvent struct {
	EventID       int64          `json:"event_id"`
	SessionID     uuid.UUID      `json:"session_id"`
	SubjectUserID uuid.UUID      `json:"subject_user_id"`
	DeviceID      string         `json:"device_id"`
	Method        AuthMethod     `json:"method"`
	Outcome       AttemptOutcome `json:"outcome"`
	At            time.Time      `json:"at"`
}
