package records

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/sealcheck/pkg/database"
	"github.com/JaimeStill/sealcheck/pkg/repository"
)

// Domain errors for verification history operations.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrInvalidFormat = errors.New("unsupported export format")
	ErrInvalidID     = errors.New("invalid record id")
	ErrInvalid       = errors.New("record violates a table constraint")
)

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalid,
}

// MapHTTPStatus maps record domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotReady), errors.Is(err, database.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
