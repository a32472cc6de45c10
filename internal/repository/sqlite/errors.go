package sqlite

import (
	"database/sql"
	"errors"
	"strings"
)

// isUniqueViolation checks if the error is a SQLite unique constraint
// violation. modernc.org/sqlite doesn't export typed errors so we match
// on the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isNoRows checks if the error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
