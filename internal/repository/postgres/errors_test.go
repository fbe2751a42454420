package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsPgDuplicateError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !isPgDuplicateError(dup) {
		t.Error("want true for a 23505 unique_violation")
	}
	other := &pgconn.PgError{Code: "23503"} // foreign_key_violation
	if isPgDuplicateError(other) {
		t.Error("want false for a non-unique-violation pg error")
	}
	if isPgDuplicateError(errors.New("plain error")) {
		t.Error("want false for a non-pg error")
	}
	if isPgDuplicateError(nil) {
		t.Error("want false for nil")
	}
}

func TestIsPgNoRowsError(t *testing.T) {
	if !isPgNoRowsError(pgx.ErrNoRows) {
		t.Error("want true for pgx.ErrNoRows")
	}
	wrapped := errors.Join(errors.New("context"), pgx.ErrNoRows)
	if !isPgNoRowsError(wrapped) {
		t.Error("want true for a wrapped pgx.ErrNoRows")
	}
	if isPgNoRowsError(errors.New("unrelated")) {
		t.Error("want false for an unrelated error")
	}
}
