package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/proxy"
	"github.com/gramseva/idverify/models"
)

// familyRepository is the PostgreSQL-backed implementation of
// [FamilyRepository]. It also satisfies the proxy package's store
// contract, translating its own sentinels to [proxy.ErrLinkNotFound]
// where the authorizer expects it.
type familyRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewFamilyRepository constructs a [FamilyRepository] backed by the
// provided database connection and logger.
func NewFamilyRepository(db *DB, logger *logger.Logger) FamilyRepository {
	logger.Debug().Msg("creating family repository")
	return &familyRepository{
		db:     db,
		logger: logger,
	}
}

// SaveMember upserts a family link on the (member, primary) pair.
// Re-registering an existing pair replaces the relationship, level and
// consent state rather than creating a second link.
func (r *familyRepository) SaveMember(ctx context.Context, member models.FamilyMember) (models.FamilyMember, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, saveFamilyMember,
		member.FamilyMemberID,
		member.MemberUserID,
		member.PrimaryUserID,
		member.Relationship,
		member.AuthorizationLevel,
		member.ConsentGiven,
		member.ConsentAt,
		member.IsActive,
		member.CreatedAt,
	)

	if err := row.Scan(&member.FamilyMemberID, &member.CreatedAt); err != nil {
		log.Err(err).Str("func", "*familyRepository.SaveMember").Msg("error: scanning error")
		return models.FamilyMember{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return member, nil
}

// FindLink retrieves the family link for an (acting, primary) pair.
// Returns [proxy.ErrLinkNotFound] when no registration exists, which the
// authorizer maps to a refusal.
func (r *familyRepository) FindLink(ctx context.Context, memberUserID, primaryUserID uuid.UUID) (models.FamilyMember, error) {
	log := logger.FromContext(ctx)

	var link models.FamilyMember
	var consentAt sql.NullTime
	row := r.db.QueryRowContext(ctx, findFamilyLink, memberUserID, primaryUserID)

	if err := row.Scan(
		&link.FamilyMemberID,
		&link.MemberUserID,
		&link.PrimaryUserID,
		&link.Relationship,
		&link.AuthorizationLevel,
		&link.ConsentGiven,
		&consentAt,
		&link.IsActive,
		&link.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FamilyMember{}, proxy.ErrLinkNotFound
		}
		log.Err(err).Str("func", "*familyRepository.FindLink").Msg("error: scanning error")
		return models.FamilyMember{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if consentAt.Valid {
		link.ConsentAt = &consentAt.Time
	}

	return link, nil
}

// SetConsent flips the consent flag on a link. Granting consent also
// stamps consent_at; revoking keeps the historical timestamp.
func (r *familyRepository) SetConsent(ctx context.Context, familyMemberID uuid.UUID, consent bool) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, setFamilyConsent, consent, familyMemberID)
	if err != nil {
		log.Err(err).Str("func", "*familyRepository.SetConsent").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return proxy.ErrLinkNotFound
	}

	return nil
}

// ListByPrimary returns every link registered against a primary
// recipient, in registration order.
func (r *familyRepository) ListByPrimary(ctx context.Context, primaryUserID uuid.UUID) ([]models.FamilyMember, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listFamilyByPrimary, primaryUserID)
	if err != nil {
		log.Err(err).Str("func", "*familyRepository.ListByPrimary").Msg("error: executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var links []models.FamilyMember
	for rows.Next() {
		var link models.FamilyMember
		var consentAt sql.NullTime
		if err := rows.Scan(
			&link.FamilyMemberID,
			&link.MemberUserID,
			&link.PrimaryUserID,
			&link.Relationship,
			&link.AuthorizationLevel,
			&link.ConsentGiven,
			&consentAt,
			&link.IsActive,
			&link.CreatedAt,
		); err != nil {
			log.Err(err).Str("func", "*familyRepository.ListByPrimary").Msg("error: scanning rows")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if consentAt.Valid {
			link.ConsentAt = &consentAt.Time
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return links, nil
}
