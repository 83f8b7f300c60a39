package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// familyService is the concrete implementation of FamilyService. The
// consent rules live in the proxy authorizer; this service adds the
// server-side listing and delegates everything else.
type familyService struct {
	authorizer       *proxy.Authorizer
	familyRepository store.FamilyRepository
	logger           *logger.Logger
}

// NewFamilyService constructs a FamilyService over the authorizer and
// the family repository.
func NewFamilyService(authorizer *proxy.Authorizer, familyRepository store.FamilyRepository, logger *logger.Logger) FamilyService {
	return &familyService{
		authorizer:       authorizer,
		familyRepository: familyRepository,
		logger:           logger,
	}
}

// Register creates a family-member link. Fails with
// proxy.ErrConsentMissing unless the request carries a verifiable
// consent proof from the primary user.
func (s *familyService) Register(ctx context.Context, req models.RegisterFamilyMemberRequest) (models.FamilyMember, error) {
	return s.authorizer.Register(ctx, req)
}

// GetLink retrieves the link for an (acting, primary) pair.
func (s *familyService) GetLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	link, err := s.familyRepository.FindLink(ctx, memberUserID, primaryUserID)
	if err != nil {
		return models.FamilyMember{}, fmt.Errorf("family link lookup ended with error: %w", err)
	}
	return link, nil
}

// Revoke withdraws the primary user's consent for a link.
func (s *familyService) Revoke(ctx context.Context, memberUserID, primaryUserID uuid.UUID) error {
	return s.authorizer.Revoke(ctx, memberUserID, primaryUserID)
}

// ListByPrimary returns every link registered against a primary
// recipient.
func (s *familyService) ListByPrimary(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error) {
	log := logger.FromContext(ctx)

	links, err := s.familyRepository.ListByPrimary(ctx, primaryUserID)
	if err != nil {
		log.Err(err).Str("primary", primaryUserID.String()).Msg("family listing ended with error")
		return nil, fmt.Errorf("family listing ended with error: %w", err)
	}
	return links, nil
}
