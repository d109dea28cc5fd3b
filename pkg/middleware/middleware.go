// Package middleware provides the HTTP middleware mounted on the API module.
package middleware

import (
	"net/http"
	"slices"
)

// System is an ordered middleware stack. The first middleware added is the
// outermost wrapper and sees the request first.
type System interface {
	Use(mw ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack []func(http.Handler) http.Handler

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw ...func(http.Handler) http.Handler) {
	*s = append(*s, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		handler = mw(handler)
	}
	return handler
}
