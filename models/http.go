package models

import (
	"time"

	"github.com/google/uuid"
)

// Request and response payloads shared by the agent kiosk API, the
// server API, and the agent→server adapter.

// StartSessionRequest opens an authentication session. DeviceID may be
// omitted; the agent substitutes its own identity and refuses a mismatch.
type StartSessionRequest struct {
	SubjectUserID uuid.UUID `json:"subject_user_id" validate:"required"`
	ActingUserID  uuid.UUID `json:"acting_user_id"`
	DeviceID      string    `json:"device_id"`
}

// BiometricSubmission carries one face capture plus the scanned ID
// document for a primary authentication attempt.
type BiometricSubmission struct {
	FaceImage  []byte `json:"face_image" validate:"required"`
	IDDocument []byte `json:"id_document" validate:"required"`
}

type FallbackSubmission struct {
	Method     AuthMethod `json:"method" validate:"required,oneof=PIN OTP"`
	Credential string     `json:"credential" validate:"required"`
}

// RegisterFamilyMemberRequest is the consent-gated registration payload.
// ConsentProof is the signed confirmation captured from the primary
// user during the consent flow; registration fails without it.
type RegisterFamilyMemberRequest struct {
	PrimaryUserID      uuid.UUID          `json:"primary_user_id" validate:"required"`
	MemberUserID       uuid.UUID          `json:"member_user_id" validate:"required"`
	Relationship       Relationship       `json:"relationship" validate:"required"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level" validate:"required,oneof=FULL LIMITED"`
	ConsentProof       string             `json:"consent_proof"`
}

// RegisterUserRequest enrols a benefit recipient. PIN arrives in
// plaintext over the trusted enrolment channel and is stored only as a
// bcrypt hash.
type RegisterUserRequest struct {
	FirstName            string      `json:"first_name" validate:"required"`
	LastName             string      `json:"last_name" validate:"required"`
	DateOfBirth          time.Time   `json:"date_of_birth" validate:"required"`
	GovernmentID         string      `json:"government_id" validate:"required"`
	BiometricTemplateRef string      `json:"biometric_template_ref"`
	PhoneNumber          string      `json:"phone_number"`
	PIN                  string      `json:"pin,omitempty"`
	AuthMethods          AuthMethods `json:"auth_methods"`
}

type EnrolDeviceRequest struct {
	DeviceID     string `json:"device_id" validate:"required"`
	SharedSecret string `json:"shared_secret" validate:"required"`
}

type EnrolDeviceResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SyncBatch is the agent→server delivery unit for drained offline
// transactions. The server answers per-transaction so a partial failure
// only re-delivers what was not acknowledged.
type SyncBatch struct {
	DeviceID     string               `json:"device_id"`
	Transactions []OfflineTransaction `json:"transactions"`
}

type SyncResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Accepted      bool      `json:"accepted"`
	Duplicate     bool      `json:"duplicate"`
	Error         string    `json:"error,omitempty"`
}

type SyncBatchResponse struct {
	Results []SyncResult `json:"results"`
}

// SessionRecord is the decrypted payload of an OfflineTransaction: the
// completed session plus the audit record derived from it at the edge.
type SessionRecord struct {
	Session AuthenticationSession `json:"session"`
	Audit   AuditRecord           `json:"audit"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
