package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/workflow"
)

var errUnavailable = errors.New("service unavailable")

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	uploadGate chan struct{}

	seals      []workflow.SealCandidate
	detectErr  error
	detectGate chan struct{}

	report      string
	compareErr  error
	compareGate chan struct{}
	sealPath    string
	template    workflow.TemplateRef

	cleanupErr  error
	cleanupGate chan struct{}
	assets      map[string][]byte
}

func newFakeBackend() *fakeBackend {
	page := 1
	return &fakeBackend{
		calls: make(map[string]int),
		seals: []workflow.SealCandidate{
			{ID: 1, Diameter: 40.2, X: 100, Y: 120, Radius: 60, Page: &page, ImageURL: "/static/seals/seal_1.png"},
			{ID: 2, Diameter: 38.9, X: 300, Y: 420, Radius: 58, ImageURL: "/static/seals/seal_2.png"},
		},
		report: "## Conclusion\nThe seals are consistent.",
		assets: make(map[string][]byte),
	}
}

func (f *fakeBackend) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) Upload(ctx context.Context, name string, r io.Reader) (workflow.FileRef, error) {
	f.record("upload")
	io.Copy(io.Discard, r)
	if err := wait(ctx, f.uploadGate); err != nil {
		return workflow.FileRef{}, err
	}
	return workflow.FileRef{Filename: name, ServerPath: "uploads/" + name}, nil
}

func (f *fakeBackend) Detect(ctx context.Context, serverPath string) ([]workflow.SealCandidate, error) {
	f.record("detect")
	if err := wait(ctx, f.detectGate); err != nil {
		return nil, err
	}
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return f.seals, nil
}

func (f *fakeBackend) Compare(ctx context.Context, sealPath string, template workflow.TemplateRef) (string, error) {
	f.record("compare")
	f.mu.Lock()
	f.sealPath, f.template = sealPath, template
	f.mu.Unlock()

	if err := wait(ctx, f.compareGate); err != nil {
		return "", err
	}
	if f.compareErr != nil {
		return "", f.compareErr
	}
	return f.report, nil
}

func (f *fakeBackend) Cleanup(ctx context.Context) error {
	f.record("cleanup")
	if err := wait(ctx, f.cleanupGate); err != nil {
		return err
	}
	return f.cleanupErr
}

func (f *fakeBackend) FetchAsset(ctx context.Context, path string) ([]byte, error) {
	f.record("asset")
	if data, ok := f.assets[path]; ok {
		return data, nil
	}
	return nil, errUnavailable
}

func (f *fakeBackend) TemplateImage(ctx context.Context, template workflow.TemplateRef) ([]byte, error) {
	return f.FetchAsset(ctx, "template:"+string(template))
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []workflow.Comparison
	files   []workflow.FileRef
}

func (r *fakeRecorder) Record(ctx context.Context, file workflow.FileRef, result workflow.Comparison) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, file)
	r.results = append(r.results, result)
	return nil
}

func sessionConfig(t *testing.T, overrides func(*config.SessionConfig)) *config.SessionConfig {
	t.Helper()
	cfg := &config.SessionConfig{}
	if overrides != nil {
		overrides(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return cfg
}

func newController(t *testing.T, b workflow.Backend, overrides func(*config.SessionConfig)) *workflow.Controller {
	t.Helper()
	return workflow.New(&workflow.Runtime{
		Backend: b,
		Session: sessionConfig(t, overrides),
		Logger:  slog.New(slog.DiscardHandler),
		Now:     func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func waitPending(t *testing.T, c *workflow.Controller, op workflow.Op) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !c.Pending(op) {
		if time.Now().After(deadline) {
			t.Fatalf("%s never became pending", op)
		}
		time.Sleep(time.Millisecond)
	}
}
