// Package workflow implements the seal verification state machine.
// A Controller owns one Session and advances it through
// upload → detect → select → compare, issuing backend calls only after
// every stage precondition has been re-validated.
package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for workflow transitions.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrBackend            = errors.New("backend request failed")
	ErrTimeout            = errors.New("backend request timed out")
	ErrInFlight           = errors.New("operation already in progress")
	ErrStale              = errors.New("response discarded: session changed")
	ErrCleanupFailed      = errors.New("backend cleanup failed")
)

// Warning reports a non-fatal failure that accompanied a completed transition.
type Warning struct {
	Op  Op
	Err error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Op, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrPreconditionFailed),
		errors.Is(err, ErrInFlight),
		errors.Is(err, ErrStale):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrBackend), errors.Is(err, ErrCleanupFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
