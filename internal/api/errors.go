package api

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/sealcheck/internal/workflow"
)

// Errors for session management.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("too many active sessions")
	ErrInvalidRequest  = errors.New("invalid request body")
)

// MapHTTPStatus maps session and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return workflow.MapHTTPStatus(err)
	}
}
