package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// UserRepository manages benefit recipient accounts in the central
// credential store.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error
	TouchLastAuthenticated(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// FamilyRepository manages family-member links. It satisfies the proxy
// package's store contract and adds server-side listing.
type FamilyRepository interface {
	FindLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
	SaveMember(ctx context.Context, member models.FamilyMember) (models.FamilyMember, error)
	SetConsent(ctx context.Context, familyMemberID uuid.UUID, consent bool) error
	ListByPrimary(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error)
}

// AuditFilter narrows audit listings. Zero-value fields are not applied.
type AuditFilter struct {
	SubjectUserID uuid.UUID
	DeviceID      string
	Outcome       models.SessionState
	ProxyOnly     bool
	From          time.Time
	To            time.Time
	Limit         int
}

// AuditRepository is the append-only central audit sink. AppendRecord is
// idempotent per record ID: re-delivering an already-stored record
// reports duplicate instead of failing.
type AuditRepository interface {
	AppendRecord(ctx context.Context, record models.AuditRecord) (duplicate bool, err error)
	ListRecords(ctx context.Context, filter AuditFilter) ([]models.AuditRecord, error)
}

// LockoutRepository persists lockout records on the central side for
// administrator review and cross-device enforcement.
type LockoutRepository interface {
	SaveLockout(ctx context.Context, record models.LockoutRecord) error
	ActiveLockout(ctx context.Context, userID uuid.UUID, deviceID string) (models.LockoutRecord, bool, error)
	ClearLockout(ctx context.Context, lockoutID uuid.UUID) error
}

// SyncRepository deduplicates delivered offline transactions.
// RecordTransaction registers the transaction ID and reports whether it
// was seen before; the caller applies the payload only for new IDs.
type SyncRepository interface {
	RecordTransaction(ctx context.Context, transactionID uuid.UUID, deviceID string) (duplicate bool, err error)
}

// DeviceRepository tracks enrolled edge devices.
type DeviceRepository interface {
	SaveDevice(ctx context.Context, deviceID string, enrolledAt time.Time) error
	FindDevice(ctx context.Context, deviceID string) (enrolledAt time.Time, found bool, err error)
}
