package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes relevant to the stores in this package.
const (
	// uniqueViolationCode is returned when an insert violates a unique constraint.
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is returned when a row references a missing parent.
	foreignKeyViolationCode = "23503"
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally for a specific named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// constraint violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// isNoRows reports whether err indicates an empty result set.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
