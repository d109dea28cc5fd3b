package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/pkg/storage"
)

// Exporter turns a Verification into a paginated PDF and optionally
// archives a copy in blob storage.
type Exporter struct {
	renderer *Renderer
	composer *composer
	archive  storage.System
	logger   *slog.Logger
	now      func() time.Time

	// font faces are not safe for concurrent use
	mu sync.Mutex
}

// NewExporter builds an exporter from report config. archive may be nil.
func NewExporter(cfg *config.ReportConfig, archive storage.System, logger *slog.Logger) (*Exporter, error) {
	layout := LayoutFromConfig(cfg)
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	face, err := LoadFace(cfg.FontPath, 13)
	if err != nil {
		return nil, err
	}

	return &Exporter{
		renderer: NewRenderer(cfg.RenderWidth, face),
		composer: &composer{
			layout: layout,
			dpi:    cfg.DPI,
			face:   face,
			title:  cfg.Title,
			footer: cfg.Footer,
		},
		archive: archive,
		logger:  logger.With("system", "report"),
		now:     time.Now,
	}, nil
}

// Export renders v, paginates it and writes the PDF to w.
// Archive failures are logged and leave ArchiveKey empty.
func (e *Exporter) Export(ctx context.Context, v Verification, w io.Writer) (*Document, error) {
	generated := e.now()

	var buf bytes.Buffer
	placements, err := e.render(ctx, v, generated, &buf)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Filename:   Filename(generated),
		Pages:      len(placements),
		Placements: placements,
		SizeBytes:  int64(buf.Len()),
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	if e.archive != nil {
		key := path.Join("reports", generated.UTC().Format("2006/01/02"), doc.Filename)
		if err := e.archive.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "application/pdf"); err != nil {
			e.logger.Warn("report archive failed", "key", key, "error", err)
		} else {
			doc.ArchiveKey = key
		}
	}

	e.logger.Info("report composed", "file", doc.Filename, "pages", doc.Pages, "size", doc.SizeBytes)
	return doc, nil
}

func (e *Exporter) render(ctx context.Context, v Verification, generated time.Time, w io.Writer) ([]Placement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := e.renderer.Render(v)
	return e.composer.compose(ctx, img, generated, w)
}
