package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// CredentialSource resolves user records for the state machine. On the
// edge it is backed by the encrypted credential cache, refreshed from
// the central store while connectivity allows.
type CredentialSource interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// LockoutChecker answers whether a live lockout record covers a
// (user, device) scope. Backed by the security monitor's store.
type LockoutChecker interface {
	ActiveLockout(ctx context.Context, userID uuid.UUID, deviceID string) (models.LockoutRecord, bool, error)
}

// ProxyAuthorizer validates family-proxy access. Implemented by the
// proxy package; errors pass through the engine unchanged
// (ConsentMissing, NotAuthorized).
type ProxyAuthorizer interface {
	Authorize(ctx context.Context, actingUserID, primaryUserID uuid.UUID) (models.AuthorizationLevel, error)
}

// AttemptJournal is the durable event stream the security monitor
// subscribes to. Append must persist the event before returning so the
// monitor can never miss one.
type AttemptJournal interface {
	Append(ctx context.Context, event models.AttemptEvent) (models.AttemptEvent, error)
}

// CompletionRecorder durably records a finished session: straight to
// the central audit sink when online, through the offline queue when
// not. Implementations must be idempotent per session ID.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, record models.SessionRecord) error
}

// OTPService is the slice of the otp package the engine needs.
type OTPService interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, models.OTPIssue, error)
	Validate(ctx context.Context, userID uuid.UUID, code string) error
}
