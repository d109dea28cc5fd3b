package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport indicates the backend could not be reached.
	ErrTransport = errors.New("network failure contacting backend")
	// ErrMalformed indicates a response that does not match the wire contract.
	ErrMalformed = errors.New("malformed backend response")
)

// StatusError is a non-success HTTP response. Reason carries the
// backend-supplied error message when one was present.
type StatusError struct {
	Op     string
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Reason, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
