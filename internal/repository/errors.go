// Package repository holds the Postgres data access layer.
package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup or keyed update matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert hits a unique constraint.
	ErrConflict = errors.New("unique constraint conflict")
)

const uniqueViolation = "23505"

// Column is one name/value pair of a natural key or insert payload.
// A nil Value in a key means "IS NULL".
type Column struct {
	Name  string
	Value interface{}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrConflict
	}
	return err
}

// rowsAffectedOrNotFound turns a zero-row Exec into ErrNotFound.
func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
