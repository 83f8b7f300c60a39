package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the lifecycle state of a benefit recipient account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusInactive  UserStatus = "INACTIVE"
)

// AuthMethods lists the authentication methods enabled for a user.
// Face recognition is the primary method; PIN and OTP are fallbacks
// offered after repeated primary failure.
type AuthMethods struct {
	FaceRecognition bool `json:"face_recognition"`
	PINEnabled      bool `json:"pin_enabled"`
	OTPEnabled      bool `json:"otp_enabled"`
}

// User represents a benefit recipient registered in the central
// credential store. The orchestration core only ever reads a user
// record and updates Status and LastAuthenticated; everything else is
// owned by the registration flow.
//
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the unique identifier of the recipient.
	UserID uuid.UUID `json:"user_id"`

	// FirstName and LastName identify the recipient for audit output.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// DateOfBirth and GovernmentID come from the enrolment documents.
	DateOfBirth  time.Time `json:"date_of_birth"`
	GovernmentID string    `json:"government_id"`

	// BiometricTemplateRef points at the stored (encrypted) face
	// template used by the biometric matcher. The template itself is
	// never loaded by the core.
	BiometricTemplateRef string `json:"biometric_template_ref"`

	// PhoneNumber is stored encrypted at rest and is used only as the
	// OTP delivery target. Never serialized to clients.
	PhoneNumber string `json:"-"`

	// PINHash is the bcrypt hash of the user's 6-digit PIN.
	// Never serialized to clients.
	PINHash string `json:"-"`

	// AuthMethods enumerates the methods this user may authenticate with.
	AuthMethods AuthMethods `json:"auth_methods"`

	Status            UserStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	LastAuthenticated *time.Time `json:"last_authenticated,omitempty"`
}

// IsActive reports whether the account may start new sessions.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
