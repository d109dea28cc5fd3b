// Package templates maintains the list of reference seal templates
// independently of any verification session.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/workflow"
)

// Source is the backend side of the catalog.
type Source interface {
	ListTemplates(ctx context.Context) ([]workflow.TemplateRef, error)
	UploadTemplate(ctx context.Context, name string, r io.Reader) (workflow.TemplateRef, error)
}

// Catalog caches the backend's template list. Concurrent refreshes
// share a single backend request.
type Catalog struct {
	source Source
	cfg    *config.TemplatesConfig
	logger *slog.Logger
	now    func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	cached  []workflow.TemplateRef
	fetched time.Time
}

// New creates a Catalog over source.
func New(source Source, cfg *config.TemplatesConfig, logger *slog.Logger) *Catalog {
	return &Catalog{
		source: source,
		cfg:    cfg,
		logger: logger.With("system", "templates"),
		now:    time.Now,
	}
}

// List returns the cached template list, refreshing it once the cache
// is older than the configured TTL.
func (c *Catalog) List(ctx context.Context) ([]workflow.TemplateRef, error) {
	c.mu.RLock()
	fresh := c.cached != nil && c.now().Sub(c.fetched) < c.cfg.CacheTTLDuration()
	cached := slices.Clone(c.cached)
	c.mu.RUnlock()

	if fresh {
		return cached, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the template list from the backend. Concurrent callers
// share one request, bounded by the refresh timeout rather than by any
// caller's context; a caller that gives up stops waiting without failing
// the others.
func (c *Catalog) Refresh(ctx context.Context) ([]workflow.TemplateRef, error) {
	ch := c.group.DoChan("templates", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeoutDuration())
		defer cancel()

		refs, err := c.source.ListTemplates(rctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = refs
		c.fetched = c.now()
		c.mu.Unlock()

		c.logger.Debug("template catalog refreshed", "count", len(refs))
		return refs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: list templates: %w", workflow.ErrBackend, res.Err)
		}
		return slices.Clone(res.Val.([]workflow.TemplateRef)), nil
	}
}

// Contains reports whether name is in the catalog.
func (c *Catalog) Contains(ctx context.Context, name workflow.TemplateRef) (bool, error) {
	refs, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(refs, name), nil
}

// Upload validates the extension and size of a reference image and adds
// it to the backend catalog.
func (c *Catalog) Upload(ctx context.Context, name string, r io.Reader) (workflow.TemplateRef, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: template file name is empty", workflow.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(c.cfg.Extensions, ext) {
		return "", fmt.Errorf("%w: %s must be one of %s", workflow.ErrInvalidInput, name, strings.Join(c.cfg.Extensions, ", "))
	}

	limit := c.cfg.MaxSizeBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", workflow.ErrInvalidInput, name, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", workflow.ErrInvalidInput, name)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", workflow.ErrInvalidInput, name, limit)
	}

	ref, err := c.source.UploadTemplate(ctx, name, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: upload template: %w", workflow.ErrBackend, err)
	}

	c.mu.Lock()
	if c.cached != nil && !slices.Contains(c.cached, ref) {
		c.cached = append(c.cached, ref)
	}
	c.mu.Unlock()

	c.logger.Info("template uploaded", "template", ref, "size", len(data))
	return ref, nil
}
