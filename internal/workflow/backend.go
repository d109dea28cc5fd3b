package workflow

import (
	"context"
	"io"
)

// Backend is the detection and comparison service consumed by the Controller.
type Backend interface {
	// Upload stores a PDF in the backend's temp storage.
	Upload(ctx context.Context, name string, r io.Reader) (FileRef, error)
	// Detect returns the seal candidates found in the uploaded PDF.
	// An empty result is not an error.
	Detect(ctx context.Context, serverPath string) ([]SealCandidate, error)
	// Compare runs the visual comparison and returns a free-text report.
	Compare(ctx context.Context, sealPath string, template TemplateRef) (string, error)
	// Cleanup discards the backend's temp artifacts.
	Cleanup(ctx context.Context) error
	// FetchAsset downloads a backend-served file such as a cropped seal image.
	FetchAsset(ctx context.Context, path string) ([]byte, error)
	// TemplateImage downloads the reference image for a template.
	TemplateImage(ctx context.Context, template TemplateRef) ([]byte, error)
}

// Recorder persists committed comparisons. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, file FileRef, result Comparison) error
}
