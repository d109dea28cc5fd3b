package routes

import "net/http"

// Group shares a path prefix between its routes and child groups.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns lists the ServeMux pattern of every route in g, depth first.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func (g Group) walk(parent string, fn func(pattern string, h http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.pattern(prefix), r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// Register mounts every route of groups on mux. Like ServeMux itself it
// panics on conflicting patterns.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) {
			mux.HandleFunc(pattern, h)
		})
	}
}
