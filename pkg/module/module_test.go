package module_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/sealcheck/pkg/module"
)

func echoPath() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.URL.Path)
	})
}

func TestNewPanicsOnInvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1", "/"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%q) did not panic", prefix)
				}
			}()
			module.New(prefix, echoPath())
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	r := module.NewRouter()
	r.Mount(module.New("/api", echoPath()))
	r.HandleNative("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "native")
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/api/sessions/123", http.StatusOK, "/sessions/123"},
		{"/api", http.StatusOK, "/"},
		{"/api/templates/", http.StatusOK, "/templates"},
		{"/healthz", http.StatusOK, "native"},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestModuleMiddleware(t *testing.T) {
	m := module.New("/api", echoPath())
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	r := module.NewRouter()
	r.Mount(m)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	if rec.Header().Get("X-Module") != "api" {
		t.Error("module middleware not applied")
	}
	if m.Prefix() != "/api" {
		t.Errorf("Prefix() = %q", m.Prefix())
	}
}

func TestMountDuplicatePanics(t *testing.T) {
	r := module.NewRouter()
	r.Mount(module.New("/api", echoPath()))

	defer func() {
		if recover() == nil {
			t.Error("second Mount of /api did not panic")
		}
	}()
	r.Mount(module.New("/api", echoPath()))
}

func TestModulePrefixIsWholeSegment(t *testing.T) {
	r := module.NewRouter()
	r.Mount(module.New("/api", echoPath()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apix/sessions", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/apix routed to /api module: status %d", rec.Code)
	}
}
