package session

import "errors"

// Error taxonomy of the orchestration core. Validation errors are
// user-correctable; authentication failures are retryable within the
// attempt budget; locked and expired are terminal for the session.
var (
	// ErrValidation indicates malformed input (bad UUID, wrong PIN
	// format, missing capture).
	ErrValidation = errors.New("validation error")
	// ErrAuthenticationFailed indicates a rejected attempt. Retryable
	// while the session lives and the attempt budget allows.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrUserNotFound indicates the subject is unknown to the
	// credential store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive indicates the subject account is suspended or
	// deactivated.
	ErrUserInactive = errors.New("user account is not active")
	// ErrAccountLocked indicates a live lockout record covers the
	// subject or device. New sessions are refused until it expires or
	// is cleared by an administrator.
	ErrAccountLocked = errors.New("account locked")
	// ErrSessionNotFound indicates the session ID is unknown to this
	// agent.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session deadline passed; the user
	// must start a new session.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionCompleted indicates the session already reached a
	// terminal state; no further attempts are accepted.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrFallbackNotOffered indicates a fallback attempt before the
	// decision engine offered one.
	ErrFallbackNotOffered = errors.New("fallback not offered")
	// ErrMethodNotEnabled indicates the submitted fallback method is
	// not among the methods offered for this session.
	ErrMethodNotEnabled = errors.New("authentication method not enabled")
	// ErrOTPDelivery indicates the SMS gateway did not accept the code
	// within its delivery window.
	ErrOTPDelivery = errors.New("otp delivery failed")
)
