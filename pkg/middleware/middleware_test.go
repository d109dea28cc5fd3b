package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/pkg/middleware"
)

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order: got %v, want %v", order, want)
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		cfg        middleware.CORSConfig
		origin     string
		wantOrigin string
	}{
		{
			name:   "disabled",
			cfg:    middleware.CORSConfig{Enabled: false, Origins: []string{"http://example.com"}},
			origin: "http://example.com",
		},
		{
			name:       "allowed origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}, AllowedMethods: []string{"GET"}, MaxAge: 60},
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
		},
		{
			name:   "disallowed origin",
			cfg:    middleware.CORSConfig{Enabled: true, Origins: []string{"http://allowed.com"}},
			origin: "http://denied.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Origin", tt.origin)
			middleware.CORS(&tt.cfg)(ok).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	called := false
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("preflight reached the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Errorf("allow-methods: got %q", got)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)
	if !called {
		t.Error("plain OPTIONS request should reach the handler")
	}
}

func TestCORSExposesReportHeaders(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}}
	cfg.Finalize(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sessions/x/report", nil)
	req.Header.Set("Origin", "http://example.com")
	middleware.CORS(cfg)(http.NotFoundHandler()).ServeHTTP(rec, req)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"Content-Disposition", "X-Report-Pages", "X-Archive-Key"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("expose-headers %q missing %s", exposed, h)
		}
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Errorf("vary: got %q", rec.Header().Get("Vary"))
	}
}

func TestCORSRejectsWildcardWithCredentials(t *testing.T) {
	cfg := &middleware.CORSConfig{Origins: []string{"*"}, AllowCredentials: true}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize accepted credentials with origin *")
	}
}

func TestCORSFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, http://b.com")

	cfg := &middleware.CORSConfig{}
	if err := cfg.Finalize(&middleware.CORSEnv{Origins: "TEST_CORS_ORIGINS"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b.com" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max age: got %d, want 3600", cfg.MaxAge)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.RequestID()(middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/brew", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") {
		t.Errorf("log missing status: %s", out)
	}
	if !strings.Contains(out, "request_id=") {
		t.Errorf("log missing request id: %s", out)
	}
}

func TestRequestIDReusesInbound(t *testing.T) {
	inbound := uuid.NewString()

	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.RequestIDHeader, inbound)
	handler.ServeHTTP(rec, req)

	if seen != inbound {
		t.Errorf("context id: got %s, want %s", seen, inbound)
	}
	if got := rec.Header().Get(middleware.RequestIDHeader); got != inbound {
		t.Errorf("header id: got %s, want %s", got, inbound)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "not-a-uuid")
	handler.ServeHTTP(rec, req)

	if seen == "not-a-uuid" || seen == "" {
		t.Errorf("invalid inbound id was not replaced: %q", seen)
	}
}

