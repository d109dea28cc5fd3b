package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes translated by Errors.
const (
	codeUniqueViolation  = "23505"
	codeNotNullViolation = "23502"
	codeCheckViolation   = "23514"
)

// Errors holds a domain's sentinels for the database failures it cares
// about. A nil field leaves that failure untranslated.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates sql.ErrNoRows and constraint violations into the domain
// sentinels. Anything else is returned unchanged.
func (m Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == codeUniqueViolation && m.Duplicate != nil:
		return m.Duplicate
	case (pgErr.Code == codeNotNullViolation || pgErr.Code == codeCheckViolation) && m.Invalid != nil:
		return m.Invalid
	}
	return err
}
