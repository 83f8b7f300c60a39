package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// CredentialService manages benefit recipient accounts in the central
// credential store.
type CredentialService interface {
	RegisterUser(ctx context.Context, req models.RegisterUserRequest) (models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error
}

// FamilyService manages consent-gated family-member registrations.
type FamilyService interface {
	Register(ctx context.Context, req models.RegisterFamilyMemberRequest) (models.FamilyMember, error)
	GetLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
	Revoke(ctx context.Context, memberUserID, primaryUserID uuid.UUID) error
	ListByPrimary(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error)
}

// AuditService is the central audit sink.
type AuditService interface {
	AppendRecord(ctx context.Context, record models.SessionRecord) error
	ListRecords(ctx context.Context, filter store.AuditFilter) ([]models.AuditRecord, error)
}

// SyncService applies batches of offline transactions delivered by
// agents, exactly once per transaction ID.
type SyncService interface {
	ReceiveBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error)
}

// DeviceService enrols edge devices and validates their tokens.
type DeviceService interface {
	Enrol(ctx context.Context, req models.EnrolDeviceRequest) (models.DeviceToken, error)
	ParseToken(ctx context.Context, tokenString string) (models.DeviceToken, error)
	EnrolledAt(ctx context.Context, deviceID string) (time.Time, bool, error)
}
