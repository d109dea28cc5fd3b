// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes such as /api, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/sealcheck/pkg/middleware"
)

// Module serves an inner router below a path prefix. The router sees
// request paths with the prefix removed.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix. It panics unless prefix is a single
// segment with a leading slash.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack. Middleware added after the
// module has served its first request is ignored.
func (m *Module) Use(mw ...func(http.Handler) http.Handler) {
	m.middleware.Use(mw...)
}

// Handler returns the inner router wrapped in the module middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// ServeHTTP strips the module prefix and dispatches to Handler.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}
	m.Handler().ServeHTTP(w, withPath(r, rest))
}

// withPath returns a shallow copy of r addressing p.
func withPath(r *http.Request, p string) *http.Request {
	out := new(http.Request)
	*out = *r

	u := *r.URL
	u.Path = p
	u.RawPath = ""
	out.URL = &u

	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case len(prefix) == 1 || strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
