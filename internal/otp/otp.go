// Package otp mints and validates the one-time codes used as fallback
// authentication. Codes are minted with gotp, delivered over the SMS
// capability, and recorded (hashed) in the agent's durable store; a code
// validates at most once and only inside its 5-minute validity window.
package otp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xlzd/gotp"

	"github.com/gramseva/idverify/models"
)

var (
	// ErrNoIssue means no code was ever issued for the user.
	ErrNoIssue = errors.New("no otp issued")
	// ErrOTPExpired means the last issued code is past its validity window.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPConsumed means the last issued code was already used once.
	ErrOTPConsumed = errors.New("otp already consumed")
	// ErrOTPMismatch means the submitted code does not match the last issue.
	ErrOTPMismatch = errors.New("otp mismatch")
)

const secretLength = 16

// IssueStore persists OTP issue records. The agent backs it with SQLite
// so issued codes survive a process restart.
type IssueStore interface {
	SaveIssue(ctx context.Context, issue models.OTPIssue) (models.OTPIssue, error)
	LatestIssue(ctx context.Context, userID uuid.UUID) (models.OTPIssue, error)
	MarkConsumed(ctx context.Context, issueID int64) error
}

// Service issues and validates one-time codes.
type Service interface {
	// Issue mints a fresh code for the user and records its hash.
	// The plaintext code is returned once, for delivery only.
	Issue(ctx context.Context, userID uuid.UUID) (string, models.OTPIssue, error)

	// Validate checks code against the user's last issue. Success
	// consumes the issue; any subsequent use of the same code fails.
	Validate(ctx context.Context, userID uuid.UUID, code string) error
}

type service struct {
	store  IssueStore
	expiry time.Duration
}

// NewService constructs an OTP [Service] with the given validity window.
func NewService(store IssueStore, expiry time.Duration) Service {
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &service{store: store, expiry: expiry}
}

func (s *service) Issue(ctx context.Context, userID uuid.UUID) (string, models.OTPIssue, error) {
	code := gotp.NewDefaultTOTP(gotp.RandomSecret(secretLength)).Now()

	now := time.Now()
	issue := models.OTPIssue{
		UserID:    userID,
		CodeHash:  hashCode(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.expiry),
	}

	saved, err := s.store.SaveIssue(ctx, issue)
	if err != nil {
		return "", models.OTPIssue{}, fmt.Errorf("save otp issue: %w", err)
	}

	return code, saved, nil
}

func (s *service) Validate(ctx context.Context, userID uuid.UUID, code string) error {
	issue, err := s.store.LatestIssue(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoIssue, err)
	}

	if issue.Consumed {
		return ErrOTPConsumed
	}
	if time.Now().After(issue.ExpiresAt) {
		return ErrOTPExpired
	}
	if hashCode(code) != issue.CodeHash {
		return ErrOTPMismatch
	}

	// Consume before reporting success so a race cannot reuse the code.
	if err := s.store.MarkConsumed(ctx, issue.IssueID); err != nil {
		return fmt.Errorf("consume otp issue: %w", err)
	}

	return nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
