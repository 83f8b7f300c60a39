package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrUserAlreadyExists is returned when registering a user whose
	// government ID is already present in the database.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrNoUserWasFound is returned when a query expected to match at least one
	// user record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrNoLinkWasFound is returned when a family-member lookup matches no
	// registration.
	ErrNoLinkWasFound = errors.New("no family link was found")

	// ErrNoLockoutWasFound is returned when a lockout lookup by identifier
	// matches no record.
	ErrNoLockoutWasFound = errors.New("no lockout was found")

	// ErrRecordNotSaved is returned when an INSERT completes without error
	// but the number of affected rows is zero, indicating that no data was
	// actually persisted.
	ErrRecordNotSaved = errors.New("record was not saved")

	// ErrTransactionNotFound is returned when an offline transaction lookup
	// by identifier matches no queue entry.
	ErrTransactionNotFound = errors.New("offline transaction not found")

	// ErrDeviceAlreadyEnrolled is returned when enrolment targets a device
	// identifier that already holds an enrolment record.
	ErrDeviceAlreadyEnrolled = errors.New("device already enrolled")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
