package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// ErrNoOTPIssue is returned when a user has no OTP issue on record.
var ErrNoOTPIssue = errors.New("no otp issue on record")

// localOTPRepository is the SQLite-backed OTP issue store. Persisting
// issues means a code delivered just before a process restart still
// validates afterwards.
type localOTPRepository struct {
	logger *logger.Logger
	db     *LocalDB
}

// NewLocalOTPRepository constructs the agent's OTP issue store over db.
func NewLocalOTPRepository(db *LocalDB, logger *logger.Logger) *localOTPRepository {
	logger.Debug().Msg("creating local otp repository")
	return &localOTPRepository{
		db:     db,
		logger: logger,
	}
}

func (r *localOTPRepository) SaveIssue(ctx context.Context, issue models.OTPIssue) (models.OTPIssue, error) {
	result, err := r.db.ExecContext(ctx, localSaveOTPIssue,
		issue.UserID.String(),
		issue.CodeHash,
		issue.IssuedAt,
		issue.ExpiresAt,
	)
	if err != nil {
		return models.OTPIssue{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	issue.IssueID, err = result.LastInsertId()
	if err != nil {
		return models.OTPIssue{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return issue, nil
}

// LatestIssue returns the most recent issue for the user. Issuing a new
// code supersedes all earlier ones: only the latest issue can validate.
func (r *localOTPRepository) LatestIssue(ctx context.Context, userID uuid.UUID) (models.OTPIssue, error) {
	var issue models.OTPIssue
	var issueUserID string
	row := r.db.QueryRowContext(ctx, localLatestOTPIssue, userID.String())

	if err := row.Scan(
		&issue.IssueID,
		&issueUserID,
		&issue.CodeHash,
		&issue.IssuedAt,
		&issue.ExpiresAt,
		&issue.Consumed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.OTPIssue{}, ErrNoOTPIssue
		}
		return models.OTPIssue{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	var err error
	if issue.UserID, err = uuid.Parse(issueUserID); err != nil {
		return models.OTPIssue{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return issue, nil
}

// MarkConsumed flips the consumed flag exactly once; a second call for
// the same issue reports the issue as missing.
func (r *localOTPRepository) MarkConsumed(ctx context.Context, issueID int64) error {
	result, err := r.db.ExecContext(ctx, localConsumeOTPIssue, issueID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoOTPIssue
	}

	return nil
}
