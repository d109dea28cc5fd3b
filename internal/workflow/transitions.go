package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Upload sends a PDF to the backend. It is accepted at any step; success
// discards the seals, seal selection and result of the previous file and
// moves the session to Detect. A selected template is kept.
func (c *Controller) Upload(ctx context.Context, name string, r io.Reader) (Session, error) {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return Session{}, fmt.Errorf("%w: %q is not a PDF", ErrInvalidInput, name)
	}

	limit := c.rt.Session.MaxUploadSizeBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Session{}, fmt.Errorf("%w: read %s: %w", ErrInvalidInput, name, err)
	}
	if len(data) == 0 {
		return Session{}, fmt.Errorf("%w: %s is empty", ErrInvalidInput, name)
	}
	if int64(len(data)) > limit {
		return Session{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, name, limit)
	}

	t, err := c.begin(OpUpload, nil)
	if err != nil {
		return Session{}, err
	}

	var ref FileRef
	err = c.call(ctx, OpUpload, c.rt.Session.UploadTimeoutDuration(), func(ctx context.Context) error {
		var err error
		ref, err = c.rt.Backend.Upload(ctx, filepath.Base(name), bytes.NewReader(data))
		return err
	})
	if err != nil {
		c.abort(t)
		c.logger.Error("upload failed", "file", name, "error", err)
		return Session{}, err
	}

	ref.SizeBytes = int64(len(data))
	if n, err := api.PageCount(bytes.NewReader(data), nil); err == nil {
		ref.PageCount = &n
	} else {
		c.logger.Debug("page count unavailable", "file", name, "error", err)
	}

	snap, err := c.finish(t, func(s *Session) error {
		template := s.SelectedTemplate
		*s = newSession()
		s.UploadedFile = &ref
		s.SelectedTemplate = template
		s.Step = StepDetect
		c.epoch++
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	c.logger.Info("file uploaded", "file", ref.Filename, "server_path", ref.ServerPath, "size", ref.SizeBytes)
	return snap, nil
}

// DetectSeals asks the backend for seal candidates in the uploaded file.
// The candidate list is replaced wholesale; an empty list is a valid result.
func (c *Controller) DetectSeals(ctx context.Context) (Session, error) {
	var path string
	t, err := c.begin(OpDetect, func(s *Session) error {
		if s.UploadedFile == nil {
			return fmt.Errorf("%w: no uploaded file", ErrPreconditionFailed)
		}
		path = s.UploadedFile.ServerPath
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	var seals []SealCandidate
	err = c.call(ctx, OpDetect, c.rt.Session.DetectTimeoutDuration(), func(ctx context.Context) error {
		var err error
		seals, err = c.rt.Backend.Detect(ctx, path)
		return err
	})
	if err != nil {
		c.abort(t)
		c.logger.Error("seal detection failed", "server_path", path, "error", err)
		return Session{}, err
	}

	snap, err := c.finish(t, func(s *Session) error {
		s.Seals = append([]SealCandidate{}, seals...)
		s.SelectedSeal = nil
		s.ComparisonPath = ""
		s.Result = nil
		s.Step = StepSelect
		return nil
	})
	if err != nil {
		c.logger.Warn("detection response discarded", "error", err)
		return Session{}, err
	}

	c.logger.Info("seals detected", "server_path", path, "count", len(seals))
	return snap, nil
}

// SelectSeal picks a detected candidate by id. The candidate must belong
// to the current detection result.
func (c *Controller) SelectSeal(id int) (Session, error) {
	var err error

	c.mu.Lock()
	if c.session.Step < StepSelect {
		err = fmt.Errorf("%w: seals not detected", ErrPreconditionFailed)
	} else if seal, ok := c.session.FindSeal(id); !ok {
		err = fmt.Errorf("%w: seal %d is not in the current detection result", ErrPreconditionFailed, id)
	} else {
		c.session.SelectedSeal = &seal
		c.session.ComparisonPath = ComparisonPath(seal.ImageURL, c.rt.Session.AssetPrefix)
		c.session.dropStaleResult()
	}

	if err != nil {
		c.mu.Unlock()
		return Session{}, err
	}

	snap, observers := c.publish()
	c.mu.Unlock()

	notify(observers, snap)
	return snap.clone(), nil
}

// SelectTemplate picks the reference template to compare against.
// It is accepted at any step since the template list does not depend on
// the uploaded file.
func (c *Controller) SelectTemplate(name TemplateRef) (Session, error) {
	if strings.TrimSpace(string(name)) == "" {
		return Session{}, fmt.Errorf("%w: template name is empty", ErrInvalidInput)
	}

	return c.commit(func(s *Session) {
		s.SelectedTemplate = name
		s.dropStaleResult()
	}), nil
}

// CompareSeals compares the selected seal against the selected template.
// The result is discarded with ErrStale if either selection changed or the
// session was reset while the backend was working.
func (c *Controller) CompareSeals(ctx context.Context) (Session, error) {
	var seal SealCandidate
	var path string
	var template TemplateRef

	t, err := c.begin(OpCompare, func(s *Session) error {
		if !s.Ready() {
			return fmt.Errorf("%w: select a seal and a template first", ErrPreconditionFailed)
		}
		seal = s.SelectedSeal.clone()
		path = s.ComparisonPath
		template = s.SelectedTemplate
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	var text string
	err = c.call(ctx, OpCompare, c.rt.Session.CompareTimeoutDuration(), func(ctx context.Context) error {
		var err error
		text, err = c.rt.Backend.Compare(ctx, path, template)
		return err
	})
	if err != nil {
		c.abort(t)
		c.logger.Error("comparison failed", "seal", seal.ID, "template", template, "error", err)
		return Session{}, err
	}

	result := Comparison{
		Report:     text,
		Seal:       seal,
		Template:   template,
		ComparedAt: c.now().UTC(),
	}

	var file FileRef
	snap, err := c.finish(t, func(s *Session) error {
		if s.SelectedSeal == nil || !s.SelectedSeal.equal(seal) ||
			s.ComparisonPath != path || s.SelectedTemplate != template {
			return fmt.Errorf("%w: selection changed during compare", ErrStale)
		}
		if s.UploadedFile != nil {
			file = *s.UploadedFile
		}
		s.Result = &result
		s.Step = StepResult
		return nil
	})
	if err != nil {
		c.logger.Warn("comparison response discarded", "error", err)
		return Session{}, err
	}

	c.logger.Info("comparison complete", "seal", seal.ID, "template", template)

	if c.rt.Recorder != nil {
		if err := c.rt.Recorder.Record(context.WithoutCancel(ctx), file, result); err != nil {
			c.logger.Warn("record comparison failed", "error", err)
		}
	}

	return snap, nil
}

// Reset clears the current selection and result while keeping the
// detected seals, returning to Select.
func (c *Controller) Reset() (Session, error) {
	c.mu.Lock()
	if c.session.Step < StepSelect {
		c.mu.Unlock()
		return Session{}, fmt.Errorf("%w: nothing to reset before detection", ErrPreconditionFailed)
	}

	c.session.SelectedSeal = nil
	c.session.ComparisonPath = ""
	c.session.SelectedTemplate = ""
	c.session.Result = nil
	c.session.Step = StepSelect
	c.epoch++

	snap, observers := c.publish()
	c.mu.Unlock()

	notify(observers, snap)
	c.logger.Info("selection reset")
	return snap.clone(), nil
}

// NewComparison asks the backend to discard its temp artifacts and then
// clears the whole session back to Upload. When cleanup fails, confirm
// decides whether to proceed; a nil confirm always proceeds. A proceeding
// reset after a failed cleanup returns a Warning.
func (c *Controller) NewComparison(ctx context.Context, confirm ConfirmFunc) (Session, *Warning, error) {
	t, err := c.begin(OpCleanup, nil)
	if err != nil {
		return Session{}, nil, err
	}

	err = c.call(ctx, OpCleanup, c.rt.Session.CleanupTimeoutDuration(), c.rt.Backend.Cleanup)

	var warn *Warning
	if err != nil {
		if confirm != nil && !confirm(ctx, err) {
			c.abort(t)
			return Session{}, nil, fmt.Errorf("%w: %w", ErrCleanupFailed, err)
		}
		warn = &Warning{Op: OpCleanup, Err: err}
		c.logger.Warn("backend cleanup failed, resetting local session", "error", err)
	}

	c.abort(t)
	snap := c.commit(func(s *Session) {
		*s = newSession()
		c.epoch++
	})

	c.logger.Info("session cleared")
	return snap, warn, nil
}
