// Package backend is the HTTP client for the seal detection and
// comparison service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/workflow"
)

// maxResponseSize bounds any single backend response body.
const maxResponseSize = 64 << 20

// Client implements workflow.Backend and the template catalog source.
type Client struct {
	base       *url.URL
	apiPath    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from backend config.
func New(cfg *config.BackendConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	apiPath := strings.Trim(cfg.APIPath, "/")
	if apiPath != "" {
		apiPath = "/" + apiPath
	}

	return &Client{
		base:    base,
		apiPath: apiPath,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeoutDuration(),
		},
		logger: logger.With("system", "backend"),
	}, nil
}

// Upload posts a PDF as multipart field "file".
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (workflow.FileRef, error) {
	var resp uploadResponse
	if err := c.postFile(ctx, "upload", "/upload", name, r, &resp); err != nil {
		return workflow.FileRef{}, err
	}

	if resp.Filepath == "" {
		return workflow.FileRef{}, fmt.Errorf("%w: upload returned no filepath", ErrMalformed)
	}

	ref := workflow.FileRef{
		Filename:   resp.Filename,
		ServerPath: resp.Filepath,
	}
	if ref.Filename == "" {
		ref.Filename = name
	}
	return ref, nil
}

// Detect requests seal detection for an uploaded file.
func (c *Client) Detect(ctx context.Context, serverPath string) ([]workflow.SealCandidate, error) {
	var resp detectResponse
	if err := c.postJSON(ctx, "detect", "/detect", detectRequest{Filepath: serverPath}, &resp); err != nil {
		return nil, err
	}

	seals := make([]workflow.SealCandidate, len(resp.Seals))
	for i, s := range resp.Seals {
		seals[i] = s.candidate()
	}
	return seals, nil
}

// Compare requests a visual comparison and returns the report text.
func (c *Client) Compare(ctx context.Context, sealPath string, template workflow.TemplateRef) (string, error) {
	req := compareRequest{SealPath: sealPath, TemplateName: string(template)}

	var resp compareResponse
	if err := c.postJSON(ctx, "compare", "/compare", req, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}

// Cleanup asks the backend to remove its temp artifacts.
func (c *Client) Cleanup(ctx context.Context) error {
	return c.postJSON(ctx, "cleanup", "/cleanup", struct{}{}, nil)
}

// ListTemplates returns the template names known to the backend.
func (c *Client) ListTemplates(ctx context.Context) ([]workflow.TemplateRef, error) {
	body, err := c.do(ctx, "list templates", http.MethodGet, c.endpoint("/templates"), nil, "")
	if err != nil {
		return nil, err
	}

	var resp templatesResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}

	refs := make([]workflow.TemplateRef, len(resp.Templates))
	for i, name := range resp.Templates {
		refs[i] = workflow.TemplateRef(name)
	}
	return refs, nil
}

// UploadTemplate adds a reference image to the backend's catalog.
func (c *Client) UploadTemplate(ctx context.Context, name string, r io.Reader) (workflow.TemplateRef, error) {
	var resp uploadTemplateResponse
	if err := c.postFile(ctx, "upload template", "/upload_template", name, r, &resp); err != nil {
		return "", err
	}

	if resp.Filename == "" {
		return workflow.TemplateRef(name), nil
	}
	return workflow.TemplateRef(resp.Filename), nil
}

// TemplateImage downloads a template's reference image.
func (c *Client) TemplateImage(ctx context.Context, template workflow.TemplateRef) ([]byte, error) {
	target := c.endpoint("/template/" + url.PathEscape(string(template)))
	return c.do(ctx, "template image", http.MethodGet, target, nil, "")
}

// FetchAsset downloads a backend-served file. Relative paths resolve
// against the backend root, not the API path.
func (c *Client) FetchAsset(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: asset path %q: %w", ErrMalformed, path, err)
	}
	if !ref.IsAbs() && !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	return c.do(ctx, "fetch asset", http.MethodGet, c.base.ResolveReference(ref).String(), nil, "")
}

// endpoint joins an already-escaped path onto the API root.
func (c *Client) endpoint(p string) string {
	return strings.TrimSuffix(c.base.String(), "/") + c.apiPath + p
}

func (c *Client) postJSON(ctx context.Context, op, p string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	body, err := c.do(ctx, op, http.MethodPost, c.endpoint(p), bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func (c *Client) postFile(ctx context.Context, op, p, name string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("%s: read %s: %w", op, name, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: close form: %w", op, err)
	}

	body, err := c.do(ctx, op, http.MethodPost, c.endpoint(p), &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrTransport, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		c.logger.Debug("backend rejected request", "op", op, "status", resp.StatusCode, "reason", e.Error)
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Reason: e.Error}
	}

	return data, nil
}

func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}
