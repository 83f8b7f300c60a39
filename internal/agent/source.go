// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/models"
)

// ErrCentralOnly marks operations the agent delegates to the central
// server. Family links are registered and revoked there; the agent only
// reads them.
var ErrCentralOnly = errors.New("operation is handled by the central server")

// CredentialCache is the encrypted local cache the source refreshes
// through. Backed by the agent's SQLite store.
type CredentialCache interface {
	CacheUser(ctx context.Context, user models.User) error
	CachedUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	CacheFamilyLink(ctx context.Context, link models.FamilyMember) error
	CachedFamilyLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
}

// CredentialSource resolves users and family links for the session
// engine: fetched fresh from the central store while connectivity
// allows, answered from the encrypted cache when it does not. Every
// successful fetch refreshes the cache, so the cache holds the last
// centrally-confirmed state.
type CredentialSource struct {
	central adapter.CentralClient
	cache   CredentialCache
	logger  *logger.Logger
}

// NewCredentialSource builds a [CredentialSource] over the central
// client and the local cache.
func NewCredentialSource(central adapter.CentralClient, cache CredentialCache, logger *logger.Logger) *CredentialSource {
	return &CredentialSource{
		central: central,
		cache:   cache,
		logger:  logger,
	}
}

// GetUser returns the user record, central-first with cache fallback.
func (s *CredentialSource) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.central.FetchUser(ctx, userID)
	if err == nil {
		if cacheErr := s.cache.CacheUser(ctx, user); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Str("user", userID.String()).Msg("refreshing cached user failed")
		}
		return user, nil
	}
	if !s.offline(err) {
		return models.User{}, fmt.Errorf("fetch user %s: %w", userID, err)
	}

	cached, cacheErr := s.cache.CachedUser(ctx, userID)
	if cacheErr != nil {
		return models.User{}, fmt.Errorf("central unreachable and user %s not cached: %w", userID, cacheErr)
	}

	s.logger.Debug().Str("user", userID.String()).Msg("serving user from offline cache")
	return cached, nil
}

// FindLink returns the family link for an (acting, primary) pair,
// central-first with cache fallback. A pair the central server does not
// know is reported as [proxy.ErrLinkNotFound].
func (s *CredentialSource) FindLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	link, err := s.central.FetchFamilyLink(ctx, memberUserID, primaryUserID)
	if err == nil {
		if cacheErr := s.cache.CacheFamilyLink(ctx, link); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Str("member", memberUserID.String()).Msg("refreshing cached family link failed")
		}
		return link, nil
	}
	if errors.Is(err, adapter.ErrRejected) {
		return models.FamilyMember{}, proxy.ErrLinkNotFound
	}
	if !s.offline(err) {
		return models.FamilyMember{}, fmt.Errorf("fetch family link: %w", err)
	}

	cached, cacheErr := s.cache.CachedFamilyLink(ctx, memberUserID, primaryUserID)
	if cacheErr != nil {
		return models.FamilyMember{}, cacheErr
	}

	s.logger.Debug().
		Str("member", memberUserID.String()).
		Str("primary", primaryUserID.String()).
		Msg("serving family link from offline cache")
	return cached, nil
}

// SaveMember is central-only on the agent.
func (s *CredentialSource) SaveMember(_ context.Context, _ models.FamilyMember) (models.FamilyMember, error) {
	return models.FamilyMember{}, fmt.Errorf("register family member: %w", ErrCentralOnly)
}

// SetConsent is central-only on the agent.
func (s *CredentialSource) SetConsent(_ context.Context, _ uuid.UUID, _ bool) error {
	return fmt.Errorf("set family consent: %w", ErrCentralOnly)
}

// offline reports whether err means the central server could not answer
// at all. A stale device token counts: the kiosk cannot refresh it
// without an operator, so the cache keeps authentication running.
func (s *CredentialSource) offline(err error) bool {
	return errors.Is(err, adapter.ErrNetworkUnavailable) || errors.Is(err, adapter.ErrUnauthorized)
}
