package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isPgDuplicateError reports whether err is a unique-constraint violation.
func isPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isPgNoRowsError reports whether err is pgx's "no rows in result set".
func isPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
