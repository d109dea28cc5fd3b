package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router dispatches on the first path segment to a mounted Module and
// sends every other request to a fallback ServeMux.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with no modules and an empty fallback mux.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount routes requests under m's prefix to m. It panics if the prefix is
// already mounted.
func (r *Router) Mount(m *Module) {
	if _, ok := r.modules[m.prefix]; ok {
		panic(fmt.Sprintf("module prefix already mounted: %s", m.prefix))
	}
	r.modules[m.prefix] = m
}

// ServeHTTP trims a trailing slash, then dispatches to the matching module
// or the fallback mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req = withPath(req, strings.TrimSuffix(p, "/"))
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.ServeHTTP(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

func firstSegment(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return "/" + seg
}
