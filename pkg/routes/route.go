// Package routes declares HTTP routes as data so a handler's surface can be
// listed and mounted on a ServeMux in one place.
package routes

import (
	"net/http"
	"path"
)

// Route binds a method and a pattern, relative to its Group, to a handler.
// An empty Pattern addresses the group prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) pattern(prefix string) string {
	p := path.Join("/", prefix, r.Pattern)
	if r.Method == "" {
		return p
	}
	return r.Method + " " + p
}
