package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/report"
	"github.com/JaimeStill/sealcheck/internal/workflow"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range 64 {
		img.Set(i, i, color.NRGBA{R: 0xc0, A: 0xff})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func exportController(t *testing.T, fb *fakeBackend) *workflow.Controller {
	t.Helper()

	rc := &config.ReportConfig{DPI: 72}
	if err := rc.Finalize(); err != nil {
		t.Fatal(err)
	}
	exporter, err := report.NewExporter(rc, nil, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}

	return workflow.New(&workflow.Runtime{
		Backend:  fb,
		Session:  sessionConfig(t, nil),
		Exporter: exporter,
	})
}

func TestExportRequiresResult(t *testing.T) {
	c := exportController(t, newFakeBackend())
	ready(t, c)

	var buf bytes.Buffer
	if _, err := c.Export(context.Background(), &buf); !errors.Is(err, workflow.ErrPreconditionFailed) {
		t.Errorf("Export() error = %v, want ErrPreconditionFailed", err)
	}
}

func TestExportWithoutExporter(t *testing.T) {
	c := newController(t, newFakeBackend(), nil)
	ready(t, c)
	if _, err := c.CompareSeals(context.Background()); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := c.Export(context.Background(), &buf); !errors.Is(err, workflow.ErrPreconditionFailed) {
		t.Errorf("Export() error = %v, want ErrPreconditionFailed", err)
	}
}

func TestExport(t *testing.T) {
	tests := []struct {
		name   string
		assets bool
	}{
		{"with images", true},
		{"images unavailable", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			if tt.assets {
				fb.assets["/static/seals/seal_2.png"] = pngBytes(t)
				fb.assets["template:company.png"] = pngBytes(t)
			}

			c := exportController(t, fb)
			ready(t, c)
			if _, err := c.CompareSeals(context.Background()); err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			doc, err := c.Export(context.Background(), &buf)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if fb.called("asset") != 2 {
				t.Errorf("fetched %d assets, want 2", fb.called("asset"))
			}

			pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
			if err != nil {
				t.Fatalf("PageCount() error = %v", err)
			}
			if pages != doc.Pages || pages < 1 {
				t.Errorf("pdf pages = %d, document pages = %d", pages, doc.Pages)
			}
			if c.Step() != workflow.StepResult {
				t.Errorf("export changed step to %v", c.Step())
			}
		})
	}
}
