package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// credentialService is the concrete implementation of CredentialService.
// It handles recipient registration and lookup using a UserRepository
// for persistence; PINs are hashed with bcrypt before they reach the
// repository.
type credentialService struct {
	userRepository store.UserRepository
	pinHasher      crypto.PINHasher
	pinLength      int
	logger         *logger.Logger
}

// NewCredentialService constructs a CredentialService wired to the given
// UserRepository.
//
// The returned service is safe for concurrent use; all state is
// read-only after construction.
func NewCredentialService(userRepository store.UserRepository, pinHasher crypto.PINHasher, pinLength int, logger *logger.Logger) CredentialService {
	return &credentialService{
		userRepository: userRepository,
		pinHasher:      pinHasher,
		pinLength:      pinLength,
		logger:         logger,
	}
}

// RegisterUser creates a new recipient account.
//
// A PIN is required whenever the PIN fallback method is enabled and must
// match the configured length; it is stored only as a bcrypt hash.
//
// Returns the persisted user or:
//   - ErrInvalidDataProvided for missing identity fields or a malformed PIN.
//   - A wrapped storage error if the repository call fails (e.g. the
//     government ID is already registered — see store.ErrUserAlreadyExists).
func (s *credentialService) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if req.FirstName == "" || req.LastName == "" || req.GovernmentID == "" {
		log.Error().Msg("invalid registration data provided")
		return models.User{}, ErrInvalidDataProvided
	}
	if req.AuthMethods.OTPEnabled && req.PhoneNumber == "" {
		return models.User{}, fmt.Errorf("%w: otp enabled without a phone number", ErrInvalidDataProvided)
	}

	var pinHash string
	if req.AuthMethods.PINEnabled {
		if !crypto.ValidPINFormat(req.PIN, s.pinLength) {
			return models.User{}, fmt.Errorf("%w: pin must be %d digits", ErrInvalidDataProvided, s.pinLength)
		}
		var err error
		if pinHash, err = s.pinHasher.Hash(req.PIN); err != nil {
			return models.User{}, fmt.Errorf("hash pin: %w", err)
		}
	}

	user := models.User{
		UserID:               uuid.New(),
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		DateOfBirth:          req.DateOfBirth,
		GovernmentID:         req.GovernmentID,
		BiometricTemplateRef: req.BiometricTemplateRef,
		PhoneNumber:          req.PhoneNumber,
		PINHash:              pinHash,
		AuthMethods:          req.AuthMethods,
		Status:               models.UserStatusActive,
		CreatedAt:            time.Now(),
	}

	registered, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		log.Err(err).Str("government_id", req.GovernmentID).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	log.Info().Str("user", registered.UserID.String()).Msg("recipient registered")
	return registered, nil
}

// GetUser retrieves a recipient account by identifier.
func (s *credentialService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.userRepository.FindUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user", userID.String()).Msg("user lookup ended with error")
		return models.User{}, fmt.Errorf("user lookup ended with error: %w", err)
	}

	return user, nil
}

// SetStatus transitions the account lifecycle state (administrator
// action).
func (s *credentialService) SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	log := logger.FromContext(ctx)

	switch status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusInactive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidDataProvided, status)
	}

	if err := s.userRepository.UpdateStatus(ctx, userID, status); err != nil {
		log.Err(err).Str("user", userID.String()).Msg("status update ended with error")
		return fmt.Errorf("status update ended with error: %w", err)
	}

	log.Info().Str("user", userID.String()).Str("status", string(status)).Msg("account status updated")
	return nil
}
