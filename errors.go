package pgtrigger

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes of the constraint violations a fired plan fragment may cause.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
const (
	foreignKeyViolationCode = "23503"
	uniqueViolationCode     = "23505"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// IsErrDuplicate reports whether the error returned by Fire (or any other execution)
// was caused because of a violation of a unique constraint.
// It returns the constraint name if it's true.
func IsErrDuplicate(err error) (string, bool) {
	return constraintViolation(err, uniqueViolationCode)
}

// IsErrForeignKey reports whether an insert or update command failed due
// to an invalid foreign key: a foreign key is missing or its source was not found.
// E.g. ERROR: insert or update on table "food_user_friendly_units" violates foreign key constraint "fk_food" (SQLSTATE 23503)
func IsErrForeignKey(err error) (string, bool) {
	return constraintViolation(err, foreignKeyViolationCode)
}

// IsErrCheckViolation reports whether a command failed because of a check constraint.
// It returns the constraint name if it's true.
func IsErrCheckViolation(err error) (string, bool) {
	return constraintViolation(err, checkViolationCode)
}

// IsErrNotNull reports whether a command failed because a null value was written to a not null column.
// It returns the column name if it's true.
func IsErrNotNull(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == notNullViolationCode {
		return pgErr.ColumnName, true
	}

	return "", false
}

func constraintViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}

	return "", false
}
