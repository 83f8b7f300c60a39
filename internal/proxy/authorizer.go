// Package proxy implements the family proxy authorizer: consent-gated
// registration of family members and authorization of
// acting-on-behalf-of access. A family member whose consent was never
// captured, or was revoked, can never authorize a session.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/utils"
	"github.com/gramseva/idverify/models"
)

var (
	// ErrConsentMissing is returned when registration is attempted
	// without a verifiable consent action from the primary user.
	// Non-retryable without a new consent capture.
	ErrConsentMissing = errors.New("consent missing")
	// ErrNotAuthorized is returned when no active, consented family
	// link exists between the acting and primary users.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrLinkNotFound is the store-level sentinel for a missing link.
	ErrLinkNotFound = errors.New("family link not found")
)

// Store persists family-member links. Implemented by the central
// PostgreSQL repository and by the agent's local cache.
type Store interface {
	FindLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
	SaveMember(ctx context.Context, member models.FamilyMember) (models.FamilyMember, error)
	SetConsent(ctx context.Context, familyMemberID uuid.UUID, consent bool) error
}

// Authorizer validates and manages family proxy access.
type Authorizer struct {
	store      Store
	consentKey string
	logger     *logger.Logger
}

// NewAuthorizer constructs an [Authorizer]. consentKey is the HMAC key
// consent proofs are verified against; the consent capture flow signs
// "<primary>:<member>" with the same key when the primary user
// confirms.
func NewAuthorizer(store Store, consentKey string, logger *logger.Logger) *Authorizer {
	return &Authorizer{store: store, consentKey: consentKey, logger: logger}
}

// Register creates a family-member link. It fails with
// [ErrConsentMissing] unless req.ConsentProof is a valid signature of
// the pair by the consent capture flow; ConsentGiven is persisted true
// only on success.
func (a *Authorizer) Register(ctx context.Context, req models.RegisterFamilyMemberRequest) (models.FamilyMember, error) {
	log := logger.FromContext(ctx)

	if req.PrimaryUserID == uuid.Nil || req.MemberUserID == uuid.Nil {
		return models.FamilyMember{}, fmt.Errorf("%w: primary and member user IDs are required", ErrNotAuthorized)
	}
	if req.PrimaryUserID == req.MemberUserID {
		return models.FamilyMember{}, fmt.Errorf("%w: a user cannot proxy for themselves", ErrNotAuthorized)
	}

	if !a.verifyConsent(req.PrimaryUserID, req.MemberUserID, req.ConsentProof) {
		log.Warn().
			Str("primary", req.PrimaryUserID.String()).
			Str("member", req.MemberUserID.String()).
			Msg("family registration refused: no verifiable consent")
		return models.FamilyMember{}, ErrConsentMissing
	}

	now := time.Now()
	member := models.FamilyMember{
		FamilyMemberID:     uuid.New(),
		MemberUserID:       req.MemberUserID,
		PrimaryUserID:      req.PrimaryUserID,
		Relationship:       req.Relationship,
		AuthorizationLevel: req.AuthorizationLevel,
		ConsentGiven:       true,
		ConsentAt:          &now,
		IsActive:           true,
		CreatedAt:          now,
	}

	saved, err := a.store.SaveMember(ctx, member)
	if err != nil {
		return models.FamilyMember{}, fmt.Errorf("save family member: %w", err)
	}

	log.Info().
		Str("primary", saved.PrimaryUserID.String()).
		Str("member", saved.MemberUserID.String()).
		Str("level", string(saved.AuthorizationLevel)).
		Msg("family member registered")
	return saved, nil
}

// Authorize validates that actingUserID may authenticate on behalf of
// primaryUserID and returns the granted authorization level. The
// session state machine attaches the level to the session so every
// response and audit entry marks the proxy access explicitly.
func (a *Authorizer) Authorize(ctx context.Context, actingUserID, primaryUserID uuid.UUID) (models.AuthorizationLevel, error) {
	link, err := a.store.FindLink(ctx, actingUserID, primaryUserID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return "", ErrNotAuthorized
		}
		return "", fmt.Errorf("family link lookup: %w", err)
	}

	if !link.HasValidAuthorization() {
		return "", ErrNotAuthorized
	}

	return link.AuthorizationLevel, nil
}

// Revoke withdraws the primary user's consent for a link. Subsequent
// Authorize calls for the pair fail until consent is captured again.
func (a *Authorizer) Revoke(ctx context.Context, actingUserID, primaryUserID uuid.UUID) error {
	link, err := a.store.FindLink(ctx, actingUserID, primaryUserID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return ErrNotAuthorized
		}
		return fmt.Errorf("family link lookup: %w", err)
	}

	if err := a.store.SetConsent(ctx, link.FamilyMemberID, false); err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("primary", primaryUserID.String()).
		Str("member", actingUserID.String()).
		Msg("family consent revoked")
	return nil
}

func (a *Authorizer) verifyConsent(primaryUserID, memberUserID uuid.UUID, proof string) bool {
	if proof == "" {
		return false
	}
	payload := primaryUserID.String() + ":" + memberUserID.String()
	return utils.VerifyHashString(payload, proof, a.consentKey)
}

// ConsentProof signs the pair the way the consent capture flow does.
// Exposed for the consent flow and for tests.
func ConsentProof(primaryUserID, memberUserID uuid.UUID, consentKey string) string {
	return utils.HashString(primaryUserID.String()+":"+memberUserID.String(), consentKey)
}
