package workflow_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/sealcheck/internal/workflow"
)

func TestComparisonPath(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		prefix string
		want   string
	}{
		{"static asset", "/static/seals/seal_1.png", "/static/", "static/seals/seal_1.png"},
		{"other path unchanged", "/media/seal_1.png", "/static/", "/media/seal_1.png"},
		{"relative unchanged", "seals/seal_1.png", "/static/", "seals/seal_1.png"},
		{"absolute url", "http://backend:5000/static/seals/seal_1.png", "/static/", "static/seals/seal_1.png"},
		{"custom prefix", "/assets/s.png", "/assets/", "assets/s.png"},
		{"empty prefix", "/static/s.png", "", "/static/s.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workflow.ComparisonPath(tt.url, tt.prefix); got != tt.want {
				t.Errorf("ComparisonPath(%q, %q) = %q, want %q", tt.url, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: bad", workflow.ErrInvalidInput), http.StatusBadRequest},
		{"precondition", workflow.ErrPreconditionFailed, http.StatusConflict},
		{"in flight", workflow.ErrInFlight, http.StatusConflict},
		{"stale", workflow.ErrStale, http.StatusConflict},
		{"timeout", workflow.ErrTimeout, http.StatusGatewayTimeout},
		{"backend", workflow.ErrBackend, http.StatusBadGateway},
		{"cleanup", workflow.ErrCleanupFailed, http.StatusBadGateway},
		{"unknown", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workflow.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
