package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/models"
)

// localCredentialRepository is the agent's encrypted credential cache:
// user records and family links fetched from the central store, held so
// authentication keeps working through an outage. Records are encrypted
// at rest with the device cipher; PIN hashes and phone numbers never
// touch the disk in the clear.
type localCredentialRepository struct {
	logger *logger.Logger
	db     *LocalDB
	cipher crypto.PayloadCipher
}

// NewLocalCredentialRepository constructs the agent's credential cache
// over db, encrypting with cipher.
func NewLocalCredentialRepository(db *LocalDB, cipher crypto.PayloadCipher, logger *logger.Logger) *localCredentialRepository {
	logger.Debug().Msg("creating local credential repository")
	return &localCredentialRepository{
		db:     db,
		cipher: cipher,
		logger: logger,
	}
}

// CacheUser stores the encrypted user record, replacing any earlier
// cached version. Sensitive fields survive the round trip because the
// cache marshals the full struct, not the client-facing JSON view.
func (r *localCredentialRepository) CacheUser(ctx context.Context, user models.User) error {
	blob, err := r.seal(cachedUserRecord{
		User:        user,
		PhoneNumber: user.PhoneNumber,
		PINHash:     user.PINHash,
	})
	if err != nil {
		return fmt.Errorf("seal user record: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, localCacheUser, user.UserID.String(), blob, time.Now()); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// CachedUser returns the cached user record, decrypted.
func (r *localCredentialRepository) CachedUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var blob []byte
	row := r.db.QueryRowContext(ctx, localGetCachedUser, userID.String())
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var record cachedUserRecord
	if err := r.open(blob, &record); err != nil {
		return models.User{}, fmt.Errorf("open user record: %w", err)
	}

	user := record.User
	user.PhoneNumber = record.PhoneNumber
	user.PINHash = record.PINHash
	return user, nil
}

// CacheFamilyLink stores the encrypted family link, replacing any
// earlier cached version for the pair.
func (r *localCredentialRepository) CacheFamilyLink(ctx context.Context, link models.FamilyMember) error {
	blob, err := r.seal(link)
	if err != nil {
		return fmt.Errorf("seal family link: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, localCacheFamilyLink,
		link.MemberUserID.String(),
		link.PrimaryUserID.String(),
		blob,
		time.Now(),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// CachedFamilyLink returns the cached link for an (acting, primary)
// pair, decrypted. Returns [proxy.ErrLinkNotFound] when the pair was
// never cached.
func (r *localCredentialRepository) CachedFamilyLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	var blob []byte
	row := r.db.QueryRowContext(ctx, localGetCachedFamilyLink, memberUserID.String(), primaryUserID.String())
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FamilyMember{}, proxy.ErrLinkNotFound
		}
		return models.FamilyMember{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var link models.FamilyMember
	if err := r.open(blob, &link); err != nil {
		return models.FamilyMember{}, fmt.Errorf("open family link: %w", err)
	}
	return link, nil
}

func (r *localCredentialRepository) seal(v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return r.cipher.Encrypt(plaintext)
}

func (r *localCredentialRepository) open(blob []byte, v any) error {
	plaintext, err := r.cipher.Decrypt(blob)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

// cachedUserRecord carries the fields the client-facing JSON view of
// [models.User] hides.
type cachedUserRecord struct {
	User        models.User `json:"user"`
	PhoneNumber string      `json:"phone_number"`
	PINHash     string      `json:"pin_hash"`
}
