// Package report renders verification results and splits the rendered
// image across fixed-size printable pages.
package report

import (
	"fmt"
	"math"

	"github.com/JaimeStill/sealcheck/internal/config"
)

// epsilon absorbs float noise when deciding whether content remains.
const epsilon = 1e-9

// Size is a source image size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout describes the printable page in millimeters. The first page
// reserves Header at the top; every page reserves Margin on each side and
// at the bottom, and continuation pages reserve Margin at the top.
type Layout struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Margin     float64 `json:"margin"`
	Header     float64 `json:"header"`
}

// A4 is the default layout: 210×297mm, 10mm margins and a 35mm header.
var A4 = Layout{PageWidth: 210, PageHeight: 297, Margin: 10, Header: 35}

// LayoutFromConfig reads the page geometry from report config.
func LayoutFromConfig(cfg *config.ReportConfig) Layout {
	return Layout{
		PageWidth:  cfg.PageWidth,
		PageHeight: cfg.PageHeight,
		Margin:     cfg.Margin,
		Header:     cfg.Header,
	}
}

// ContentWidth is the width the source image is scaled to.
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// FirstPageHeight is the content window height on page 0.
func (l Layout) FirstPageHeight() float64 {
	return l.PageHeight - l.Header - l.Margin
}

// PageContentHeight is the content window height on every later page.
func (l Layout) PageContentHeight() float64 {
	return l.PageHeight - 2*l.Margin
}

// WindowTop is the page y-coordinate where the content window starts.
func (l Layout) WindowTop(page int) float64 {
	if page == 0 {
		return l.Header
	}
	return l.Margin
}

// Validate rejects layouts with no usable content window.
func (l Layout) Validate() error {
	if l.Margin < 0 || l.Header < 0 {
		return fmt.Errorf("%w: negative margin or header", ErrInvalidDimensions)
	}
	if l.ContentWidth() <= 0 || l.FirstPageHeight() <= 0 || l.PageContentHeight() <= 0 {
		return fmt.Errorf("%w: layout %gx%gmm has no content window", ErrInvalidDimensions, l.PageWidth, l.PageHeight)
	}
	return nil
}

// Placement positions the scaled image on one page.
// OffsetMM is where the image's top edge sits relative to the page's
// content origin: the header bottom on page 0, the page top afterwards.
// Start and End bound the visible slice in scaled-image millimeters.
type Placement struct {
	PageIndex int     `json:"page_index" yaml:"page_index"`
	OffsetMM  float64 `json:"offset_mm" yaml:"offset_mm"`
	Start     float64 `json:"start_mm" yaml:"start_mm"`
	End       float64 `json:"end_mm" yaml:"end_mm"`
}

// ScaledHeight returns the source height after scaling to the content width.
func ScaledHeight(src Size, l Layout) float64 {
	return src.Height * l.ContentWidth() / src.Width
}

// Paginate splits an image of size src across pages of layout l.
// Page 0 shows [0, F); page k ≥ 1 shows [F+(k-1)P, F+kP), clipped to the
// scaled height. Slices tile the image exactly once with no trailing
// empty page.
func Paginate(src Size, l Layout) ([]Placement, error) {
	if !(src.Width > 0) || !(src.Height > 0) || math.IsInf(src.Width, 0) || math.IsInf(src.Height, 0) {
		return nil, fmt.Errorf("%w: source %gx%g", ErrInvalidDimensions, src.Width, src.Height)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	hs := ScaledHeight(src, l)
	first := l.FirstPageHeight()
	full := l.PageContentHeight()

	placements := []Placement{{
		PageIndex: 0,
		OffsetMM:  0,
		Start:     0,
		End:       math.Min(first, hs),
	}}

	printed := first
	for hs-printed > epsilon {
		placements = append(placements, Placement{
			PageIndex: len(placements),
			OffsetMM:  l.Margin - printed,
			Start:     printed,
			End:       math.Min(printed+full, hs),
		})
		printed += full
	}

	return placements, nil
}
