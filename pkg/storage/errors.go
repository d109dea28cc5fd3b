package storage

import (
	"errors"
	"net/http"
)

// Sentinel errors for blob operations.
var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key must not contain '..'")
)

// MapHTTPStatus maps storage errors to HTTP status codes. Unrecognized
// errors come from the blob service and map to 502.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
