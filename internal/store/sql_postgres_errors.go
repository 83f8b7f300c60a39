package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification says whether a failed database operation is worth
// another attempt.
type ErrorClassification int

const (
	// NonRetryable covers constraint violations, bad data and anything
	// the classifier does not recognise: repeating the statement would
	// fail the same way.
	NonRetryable ErrorClassification = iota

	// Retryable covers transient conditions: lost connections, deadlock
	// rollbacks and a server that is still starting up.
	Retryable
)

// PostgresErrorClassifier classifies pgx driver errors by their
// PostgreSQL error class. See
// https://www.postgresql.org/docs/current/errcodes-appendix.html for
// the SQLSTATE class listing.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify reports whether err describes a transient database
// condition. Errors that do not unwrap to *pgconn.PgError are
// NonRetryable.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return NonRetryable
	}
	return ClassifyPgError(pgErr)
}

// ClassifyPgError classifies by SQLSTATE class. Connection exceptions
// (class 08), transaction rollbacks (class 40, including serialization
// failures and deadlocks) and operator interventions (class 57, e.g.
// 57P03 "cannot connect now") are transient. Everything else, notably
// data exceptions (class 22), integrity constraint violations (class
// 23) and access rule violations (class 42), is permanent.
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	switch {
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsTransactionRollback(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code):
		return Retryable
	default:
		return NonRetryable
	}
}
