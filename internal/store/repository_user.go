package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// It handles recipient account creation, lookup and the two fields the
// authentication flow is allowed to touch: status and last_authenticated.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new recipient record and returns the fully populated
// [models.User] with server-assigned fields.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrUserAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createUser,
		user.UserID,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.GovernmentID,
		user.BiometricTemplateRef,
		user.PhoneNumber,
		user.PINHash,
		user.AuthMethods.FaceRecognition,
		user.AuthMethods.PINEnabled,
		user.AuthMethods.OTPEnabled,
		user.Status,
		user.CreatedAt,
	)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrUserAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	if err := row.Scan(&user.UserID, &user.CreatedAt); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: scanning error")
		return models.User{}, err
	}

	return user, nil
}

// FindUser retrieves a recipient record by identifier.
//
// Error handling:
//   - [sql.ErrNoRows] → [ErrNoUserWasFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) FindUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	log := logger.FromContext(ctx)

	var found models.User
	var lastAuthenticated sql.NullTime
	row := r.db.QueryRowContext(ctx, findUser, userID)

	if err := row.Scan(
		&found.UserID,
		&found.FirstName,
		&found.LastName,
		&found.DateOfBirth,
		&found.GovernmentID,
		&found.BiometricTemplateRef,
		&found.PhoneNumber,
		&found.PINHash,
		&found.AuthMethods.FaceRecognition,
		&found.AuthMethods.PINEnabled,
		&found.AuthMethods.OTPEnabled,
		&found.Status,
		&found.CreatedAt,
		&lastAuthenticated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.FindUser").Msg("error: scanning error")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if lastAuthenticated.Valid {
		found.LastAuthenticated = &lastAuthenticated.Time
	}

	return found, nil
}

// UpdateStatus transitions the account lifecycle state.
func (r *userRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateUserStatus, status, userID)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateStatus").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

// TouchLastAuthenticated advances last_authenticated to at. Deliveries
// arriving out of order cannot move the timestamp backwards: the update
// keeps the greater of the stored and supplied values.
func (r *userRepository) TouchLastAuthenticated(ctx context.Context, userID uuid.UUID, at time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, touchLastAuthenticated, at, userID)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.TouchLastAuthenticated").Msg("error: executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}
