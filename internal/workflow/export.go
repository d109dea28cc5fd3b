package workflow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/JaimeStill/sealcheck/internal/report"
)

// Export renders the committed comparison as a paginated PDF written to w.
// Seal and template images are fetched concurrently; an image that cannot
// be fetched or decoded is logged and rendered as a placeholder.
func (c *Controller) Export(ctx context.Context, w io.Writer) (*report.Document, error) {
	if c.rt.Exporter == nil {
		return nil, fmt.Errorf("%w: report export is not configured", ErrPreconditionFailed)
	}

	var result Comparison
	var file FileRef
	t, err := c.begin(OpExport, func(s *Session) error {
		if s.Result == nil {
			return fmt.Errorf("%w: no comparison result to export", ErrPreconditionFailed)
		}
		result = *s.Result
		result.Seal = result.Seal.clone()
		if s.UploadedFile != nil {
			file = *s.UploadedFile
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer c.abort(t)

	if timeout := c.rt.Session.ExportTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v := report.Verification{
		SourceFile: file.Filename,
		SealID:     result.Seal.ID,
		Diameter:   result.Seal.Diameter,
		Page:       result.Seal.Page,
		Template:   string(result.Template),
		Report:     result.Report,
		ComparedAt: result.ComparedAt,
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		v.SealImage = c.fetchImage(ctx, "seal", func(ctx context.Context) ([]byte, error) {
			return c.rt.Backend.FetchAsset(ctx, result.Seal.ImageURL)
		})
	})
	wg.Go(func() {
		v.TemplateImage = c.fetchImage(ctx, "template", func(ctx context.Context) ([]byte, error) {
			return c.rt.Backend.TemplateImage(ctx, result.Template)
		})
	})
	wg.Wait()

	doc, err := c.rt.Exporter.Export(ctx, v, w)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, OpExport)
		}
		return nil, fmt.Errorf("export report: %w", err)
	}

	c.logger.Info("report exported", "file", doc.Filename, "pages", doc.Pages)
	return doc, nil
}

func (c *Controller) fetchImage(ctx context.Context, kind string, fetch func(context.Context) ([]byte, error)) image.Image {
	data, err := fetch(ctx)
	if err != nil {
		c.logger.Warn("report image unavailable", "kind", kind, "error", err)
		return nil
	}

	img, err := report.DecodeImage(data)
	if err != nil {
		c.logger.Warn("report image undecodable", "kind", kind, "error", err)
		return nil
	}
	return img
}
