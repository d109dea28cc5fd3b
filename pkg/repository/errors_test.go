package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/sealcheck/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
	errInvalid   = errors.New("invalid")
)

func TestErrorsMap(t *testing.T) {
	full := repository.Errors{NotFound: errNotFound, Duplicate: errDuplicate, Invalid: errInvalid}
	other := errors.New("connection reset")
	fk := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		m    repository.Errors
		err  error
		want error
	}{
		{"nil", full, nil, nil},
		{"no rows", full, sql.ErrNoRows, errNotFound},
		{"wrapped no rows", full, fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", full, &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"check violation", full, &pgconn.PgError{Code: "23514"}, errInvalid},
		{"not null violation", full, &pgconn.PgError{Code: "23502"}, errInvalid},
		{"untranslated pg code", full, fk, fk},
		{"passthrough", full, other, other},
		{"unset sentinel", repository.Errors{NotFound: errNotFound}, &pgconn.PgError{Code: "23514"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Map(tt.err)
			if tt.want == nil && tt.err != nil {
				if got != tt.err {
					t.Errorf("Map() = %v, want the original error", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Map() = %v, want %v", got, tt.want)
			}
		})
	}
}
