package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgUniqueViolation = "23505"

const mysqlDuplicateEntry = 1062

// IsConflict reports whether err is a uniqueness-constraint violation.
// Retrying these is pointless; they recur identically until the caller
// changes the conflicting value.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// IsRetryable classifies storage failures for the retry layer. Constraint
// violations, missing rows, and cancelled contexts recur on retry and are
// excluded; everything else (timeouts, resets) is assumed transient.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsConflict(err):
		return false
	case errors.Is(err, sql.ErrNoRows):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
