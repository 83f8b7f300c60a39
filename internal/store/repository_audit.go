package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

const defaultAuditListLimit = 100

// auditRepository is the PostgreSQL-backed implementation of
// [AuditRepository]. Records are append-only; the record_id primary key
// makes re-delivery of the same record a no-op.
type auditRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewAuditRepository constructs an [AuditRepository] backed by the
// provided database connection and logger.
func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	logger.Debug().Msg("creating audit repository")
	return &auditRepository{
		db:     db,
		logger: logger,
	}
}

// AppendRecord stores one audit entry. A conflict on record_id means the
// record was delivered before; the method reports duplicate=true and
// leaves the stored row untouched.
func (r *auditRepository) AppendRecord(ctx context.Context, record models.AuditRecord) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, appendAuditRecord,
		record.RecordID,
		record.SessionID,
		record.SubjectUserID,
		record.ActingUserID,
		record.DeviceID,
		record.Method,
		record.Outcome,
		record.ProxyAccess,
		record.AuthorizationLevel,
		record.RecordedAt,
	)
	if err != nil {
		log.Err(err).Str("func", "*auditRepository.AppendRecord").Msg("error: executing statement")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected == 0, nil
}

// ListRecords returns audit entries matching filter, newest first. The
// WHERE clause is assembled with squirrel so only the filter fields that
// are actually set become predicates.
func (r *auditRepository) ListRecords(ctx context.Context, filter AuditFilter) ([]models.AuditRecord, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select(
		"record_id",
		"session_id",
		"subject_user_id",
		"acting_user_id",
		"device_id",
		"method",
		"outcome",
		"proxy_access",
		"authorization_level",
		"recorded_at",
	).
		From("audit_records").
		OrderBy("recorded_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.SubjectUserID != uuid.Nil {
		builder = builder.Where(sq.Eq{"subject_user_id": filter.SubjectUserID})
	}
	if filter.DeviceID != "" {
		builder = builder.Where(sq.Eq{"device_id": filter.DeviceID})
	}
	if filter.Outcome != "" {
		builder = builder.Where(sq.Eq{"outcome": filter.Outcome})
	}
	if filter.ProxyOnly {
		builder = builder.Where(sq.Eq{"proxy_access": true})
	}
	if !filter.From.IsZero() {
		builder = builder.Where(sq.GtOrEq{"recorded_at": filter.From})
	}
	if !filter.To.IsZero() {
		builder = builder.Where(sq.Lt{"recorded_at": filter.To})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	builder = builder.Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*auditRepository.ListRecords").Msg("error: executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.AuditRecord
	for rows.Next() {
		var record models.AuditRecord
		var level sql.NullString
		if err := rows.Scan(
			&record.RecordID,
			&record.SessionID,
			&record.SubjectUserID,
			&record.ActingUserID,
			&record.DeviceID,
			&record.Method,
			&record.Outcome,
			&record.ProxyAccess,
			&level,
			&record.RecordedAt,
		); err != nil {
			log.Err(err).Str("func", "*auditRepository.ListRecords").Msg("error: scanning rows")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if level.Valid {
			record.AuthorizationLevel = models.AuthorizationLevel(level.String)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}
