package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/models"
)

// mockCentral implements adapter.CentralClient with overridable behavior
// per test.
type mockCentral struct {
	fetchUserFn func(ctx context.Context, userID uuid.UUID) (models.User, error)
	fetchLinkFn func(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error)
}

func (m *mockCentral) Enrol(_ context.Context, _, _ string) error { return nil }
func (m *mockCentral) Ping(_ context.Context) error               { return nil }

func (m *mockCentral) FetchUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	if m.fetchUserFn != nil {
		return m.fetchUserFn(ctx, userID)
	}
	return models.User{UserID: userID, Status: models.UserStatusActive}, nil
}

func (m *mockCentral) FetchFamilyLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	if m.fetchLinkFn != nil {
		return m.fetchLinkFn(ctx, memberUserID, primaryUserID)
	}
	return models.FamilyMember{MemberUserID: memberUserID, PrimaryUserID: primaryUserID}, nil
}

func (m *mockCentral) DeliverRecord(_ context.Context, _ models.SessionRecord) error {
	return nil
}

func (m *mockCentral) DeliverBatch(_ context.Context, _ models.SyncBatch) (models.SyncBatchResponse, error) {
	return models.SyncBatchResponse{}, nil
}

// memCache is an in-memory CredentialCache.
type memCache struct {
	users    map[uuid.UUID]models.User
	links    map[[2]uuid.UUID]models.FamilyMember
	cacheErr error
}

func newMemCache() *memCache {
	return &memCache{
		users: make(map[uuid.UUID]models.User),
		links: make(map[[2]uuid.UUID]models.FamilyMember),
	}
}

func (c *memCache) CacheUser(_ context.Context, user models.User) error {
	if c.cacheErr != nil {
		return c.cacheErr
	}
	c.users[user.UserID] = user
	return nil
}

func (c *memCache) CachedUser(_ context.Context, userID uuid.UUID) (models.User, error) {
	user, ok := c.users[userID]
	if !ok {
		return models.User{}, errors.New("no cached user")
	}
	return user, nil
}

func (c *memCache) CacheFamilyLink(_ context.Context, link models.FamilyMember) error {
	if c.cacheErr != nil {
		return c.cacheErr
	}
	c.links[[2]uuid.UUID{link.MemberUserID, link.PrimaryUserID}] = link
	return nil
}

func (c *memCache) CachedFamilyLink(_ context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	link, ok := c.links[[2]uuid.UUID{memberUserID, primaryUserID}]
	if !ok {
		return models.FamilyMember{}, proxy.ErrLinkNotFound
	}
	return link, nil
}

func TestGetUser_CentralFirstRefreshesCache(t *testing.T) {
	userID := uuid.New()
	central := &mockCentral{
		fetchUserFn: func(_ context.Context, id uuid.UUID) (models.User, error) {
			return models.User{UserID: id, FirstName: "Asha", PINHash: "hash"}, nil
		},
	}
	cache := newMemCache()
	source := NewCredentialSource(central, cache, logger.Nop())

	user, err := source.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.FirstName)

	cached, err := cache.CachedUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "hash", cached.PINHash)
}

func TestGetUser_OfflineServedFromCache(t *testing.T) {
	userID := uuid.New()
	cache := newMemCache()
	cache.users[userID] = models.User{UserID: userID, FirstName: "Asha"}

	central := &mockCentral{
		fetchUserFn: func(_ context.Context, _ uuid.UUID) (models.User, error) {
			return models.User{}, adapter.ErrNetworkUnavailable
		},
	}
	source := NewCredentialSource(central, cache, logger.Nop())

	user, err := source.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.FirstName)
}

func TestGetUser_StaleTokenFallsBackToCache(t *testing.T) {
	userID := uuid.New()
	cache := newMemCache()
	cache.users[userID] = models.User{UserID: userID}

	// an expired device token cannot be refreshed without connectivity;
	// the cache keeps authentication running
	central := &mockCentral{
		fetchUserFn: func(_ context.Context, _ uuid.UUID) (models.User, error) {
			return models.User{}, adapter.ErrUnauthorized
		},
	}
	source := NewCredentialSource(central, cache, logger.Nop())

	_, err := source.GetUser(context.Background(), userID)
	assert.NoError(t, err)
}

func TestGetUser_OfflineAndUncached(t *testing.T) {
	central := &mockCentral{
		fetchUserFn: func(_ context.Context, _ uuid.UUID) (models.User, error) {
			return models.User{}, adapter.ErrNetworkUnavailable
		},
	}
	source := NewCredentialSource(central, newMemCache(), logger.Nop())

	_, err := source.GetUser(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestGetUser_RejectionNotServedFromCache(t *testing.T) {
	userID := uuid.New()
	cache := newMemCache()
	cache.users[userID] = models.User{UserID: userID}

	central := &mockCentral{
		fetchUserFn: func(_ context.Context, _ uuid.UUID) (models.User, error) {
			return models.User{}, adapter.ErrRejected
		},
	}
	source := NewCredentialSource(central, cache, logger.Nop())

	// a definitive central answer is never overridden by stale cache
	_, err := source.GetUser(context.Background(), userID)
	assert.ErrorIs(t, err, adapter.ErrRejected)
}

func TestGetUser_CacheWriteFailureDoesNotBlock(t *testing.T) {
	cache := newMemCache()
	cache.cacheErr = errors.New("disk full")
	source := NewCredentialSource(&mockCentral{}, cache, logger.Nop())

	_, err := source.GetUser(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestFindLink_CentralFirstRefreshesCache(t *testing.T) {
	memberID := uuid.New()
	primaryID := uuid.New()
	central := &mockCentral{
		fetchLinkFn: func(_ context.Context, member, primary uuid.UUID) (models.FamilyMember, error) {
			return models.FamilyMember{
				FamilyMemberID: uuid.New(),
				MemberUserID:   member,
				PrimaryUserID:  primary,
				ConsentGiven:   true,
				IsActive:       true,
			}, nil
		},
	}
	cache := newMemCache()
	source := NewCredentialSource(central, cache, logger.Nop())

	link, err := source.FindLink(context.Background(), memberID, primaryID)
	require.NoError(t, err)
	assert.True(t, link.ConsentGiven)

	cached, err := cache.CachedFamilyLink(context.Background(), memberID, primaryID)
	require.NoError(t, err)
	assert.Equal(t, link.FamilyMemberID, cached.FamilyMemberID)
}

func TestFindLink_UnknownPairReported(t *testing.T) {
	central := &mockCentral{
		fetchLinkFn: func(_ context.Context, _, _ uuid.UUID) (models.FamilyMember, error) {
			return models.FamilyMember{}, adapter.ErrRejected
		},
	}
	source := NewCredentialSource(central, newMemCache(), logger.Nop())

	_, err := source.FindLink(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, proxy.ErrLinkNotFound)
}

func TestFindLink_OfflineServedFromCache(t *testing.T) {
	memberID := uuid.New()
	primaryID := uuid.New()
	cache := newMemCache()
	cache.links[[2]uuid.UUID{memberID, primaryID}] = models.FamilyMember{
		MemberUserID:  memberID,
		PrimaryUserID: primaryID,
		ConsentGiven:  true,
		IsActive:      true,
	}

	central := &mockCentral{
		fetchLinkFn: func(_ context.Context, _, _ uuid.UUID) (models.FamilyMember, error) {
			return models.FamilyMember{}, adapter.ErrNetworkUnavailable
		},
	}
	source := NewCredentialSource(central, cache, logger.Nop())

	link, err := source.FindLink(context.Background(), memberID, primaryID)
	require.NoError(t, err)
	assert.True(t, link.ConsentGiven)
}

func TestFindLink_OfflineAndUncached(t *testing.T) {
	central := &mockCentral{
		fetchLinkFn: func(_ context.Context, _, _ uuid.UUID) (models.FamilyMember, error) {
			return models.FamilyMember{}, adapter.ErrNetworkUnavailable
		},
	}
	source := NewCredentialSource(central, newMemCache(), logger.Nop())

	_, err := source.FindLink(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, proxy.ErrLinkNotFound)
}

func TestSaveMemberAndSetConsent_CentralOnly(t *testing.T) {
	source := NewCredentialSource(&mockCentral{}, newMemCache(), logger.Nop())

	_, err := source.SaveMember(context.Background(), models.FamilyMember{})
	assert.ErrorIs(t, err, ErrCentralOnly)

	err = source.SetConsent(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrCentralOnly)
}
