package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is the declared family relation between a proxy and the
// primary benefit recipient.
type Relationship string

const (
	RelationshipSpouse   Relationship = "SPOUSE"
	RelationshipChild    Relationship = "CHILD"
	RelationshipParent   Relationship = "PARENT"
	RelationshipGuardian Relationship = "GUARDIAN"
	RelationshipOther    Relationship = "OTHER"
)

// AuthorizationLevel bounds what a family proxy may do on behalf of the
// primary recipient.
type AuthorizationLevel string

const (
	AuthorizationFull    AuthorizationLevel = "FULL"
	AuthorizationLimited AuthorizationLevel = "LIMITED"
)

// FamilyMember links an acting user to a primary recipient they are
// authorized to collect benefits for. A record with ConsentGiven=false
// can never authorize a session, regardless of IsActive.
type FamilyMember struct {
	FamilyMemberID uuid.UUID `json:"family_member_id"`

	// MemberUserID is the acting user; PrimaryUserID is the recipient
	// the member acts on behalf of.
	MemberUserID  uuid.UUID `json:"member_user_id"`
	PrimaryUserID uuid.UUID `json:"primary_user_id"`

	Relationship       Relationship       `json:"relationship"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level"`

	// ConsentGiven is set only by the explicit consent flow; ConsentAt
	// records when the primary user confirmed it.
	ConsentGiven bool       `json:"consent_given"`
	ConsentAt    *time.Time `json:"consent_at,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// HasValidAuthorization reports whether this record may back a proxy
// session right now.
func (f FamilyMember) HasValidAuthorization() bool {
	return f.ConsentGiven && f.IsActive
}

// TableName returns the name of the database table
// associated with the FamilyMember model.
func (f FamilyMember) TableName() string {
	return "family_members"
}
