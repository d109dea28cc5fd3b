package report

import "errors"

// ErrInvalidDimensions indicates a degenerate source image or page layout.
var ErrInvalidDimensions = errors.New("invalid dimensions")
