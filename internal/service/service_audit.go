package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// auditService is the concrete implementation of AuditService. Appends
// are idempotent per record ID, so agents may safely re-deliver after an
// ambiguous network failure.
type auditService struct {
	auditRepository store.AuditRepository
	userRepository  store.UserRepository
	logger          *logger.Logger
}

// NewAuditService constructs an AuditService over the audit and user
// repositories.
func NewAuditService(auditRepository store.AuditRepository, userRepository store.UserRepository, logger *logger.Logger) AuditService {
	return &auditService{
		auditRepository: auditRepository,
		userRepository:  userRepository,
		logger:          logger,
	}
}

// AppendRecord stores the audit entry of a completed session and, for a
// successful outcome, advances the subject's last-authenticated
// timestamp. Duplicate deliveries leave both untouched.
func (s *auditService) AppendRecord(ctx context.Context, record models.SessionRecord) error {
	log := logger.FromContext(ctx)

	audit := record.Audit
	if audit.RecordID == uuid.Nil {
		return fmt.Errorf("%w: audit record without identifier", ErrInvalidDataProvided)
	}

	duplicate, err := s.auditRepository.AppendRecord(ctx, audit)
	if err != nil {
		log.Err(err).Str("record", audit.RecordID.String()).Msg("audit append ended with error")
		return fmt.Errorf("audit append ended with error: %w", err)
	}
	if duplicate {
		log.Debug().Str("record", audit.RecordID.String()).Msg("duplicate audit record ignored")
		return nil
	}

	if audit.Outcome == models.SessionSuccess {
		at := audit.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		if err := s.userRepository.TouchLastAuthenticated(ctx, audit.SubjectUserID, at); err != nil {
			log.Err(err).Str("user", audit.SubjectUserID.String()).Msg("last-authenticated update ended with error")
			return fmt.Errorf("last-authenticated update ended with error: %w", err)
		}
	}

	return nil
}

// ListRecords returns audit entries matching filter, newest first.
func (s *auditService) ListRecords(ctx context.Context, filter store.AuditFilter) ([]models.AuditRecord, error) {
	log := logger.FromContext(ctx)

	records, err := s.auditRepository.ListRecords(ctx, filter)
	if err != nil {
		log.Err(err).Msg("audit listing ended with error")
		return nil, fmt.Errorf("audit listing ended with error: %w", err)
	}
	return records, nil
}
