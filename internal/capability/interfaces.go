// Package capability defines the contracts of the external services the
// orchestration core depends on — the biometric matcher, the document
// validator, and the SMS gateway — together with resty-backed HTTP
// implementations. All calls are latency-bounded; a deadline overrun is
// reported as [ErrCapabilityTimeout] and recorded by the caller as a
// TIMEOUT attempt, never as a silent hang.
package capability

import (
	"context"
	"errors"

	"github.com/gramseva/idverify/models"
)

var (
	// ErrCapabilityTimeout marks a capability call that exceeded its
	// deadline.
	ErrCapabilityTimeout = errors.New("capability call timed out")
	// ErrCapabilityUnavailable marks a capability that could not be
	// reached at all.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// BiometricMatcher scores a captured face against a stored template and
// checks that the capture is of a live person.
type BiometricMatcher interface {
	// Match returns a confidence score in [0,1].
	Match(ctx context.Context, image []byte, templateRef string) (float64, error)
	// CheckLiveness reports whether the capture passes liveness detection.
	CheckLiveness(ctx context.Context, image []byte) (bool, error)
}

// DocumentValidator extracts the identity fields from a scanned ID
// document.
type DocumentValidator interface {
	Extract(ctx context.Context, document []byte) (models.DocumentFields, error)
}

// SMSSender delivers a one-time code to a phone number. The gateway SLA
// is delivery attempted within 30 seconds; callers enforce that with a
// context deadline.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}
