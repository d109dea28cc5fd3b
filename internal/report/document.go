package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	mmPerInch = 25.4
	ptPerMM   = 72 / mmPerInch

	titleMM  = 6.0
	stampMM  = 3.2
	footerMM = 3.0
)

// Document describes an exported PDF.
type Document struct {
	Filename   string      `json:"filename" yaml:"filename"`
	Pages      int         `json:"pages" yaml:"pages"`
	Placements []Placement `json:"placements" yaml:"placements"`
	SizeBytes  int64       `json:"size_bytes" yaml:"size_bytes"`
	ArchiveKey string      `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
}

// Filename returns the timestamped export name for t.
func Filename(t time.Time) string {
	return "seal-report_" + t.Format("20060102-150405") + ".pdf"
}

// composer rasterizes each placement onto a full page and assembles the
// pages into a PDF.
type composer struct {
	layout Layout
	dpi    int
	face   font.Face
	title  string
	footer string
}

func (c *composer) pxPerMM() float64 {
	return float64(c.dpi) / mmPerInch
}

func (c *composer) px(mm float64) int {
	return int(math.Round(mm * c.pxPerMM()))
}

func (c *composer) compose(ctx context.Context, img image.Image, generated time.Time, w io.Writer) ([]Placement, error) {
	b := img.Bounds()
	src := Size{Width: float64(b.Dx()), Height: float64(b.Dy())}

	placements, err := Paginate(src, c.layout)
	if err != nil {
		return nil, err
	}

	contentPx := c.px(c.layout.ContentWidth())
	scaled := imaging.Resize(img, contentPx, 0, imaging.Lanczos)
	scaledPx := scaled.Bounds().Dy()
	hs := ScaledHeight(src, c.layout)

	row := func(mm float64) int {
		r := int(math.Round(mm * float64(scaledPx) / hs))
		return min(max(r, 0), scaledPx)
	}

	pages := make([]io.Reader, 0, len(placements))
	for _, p := range placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := imaging.New(c.px(c.layout.PageWidth), c.px(c.layout.PageHeight), color.White)

		top, bottom := row(p.Start), row(p.End)
		if bottom > top {
			slice := imaging.Crop(scaled, image.Rect(0, top, contentPx, bottom))
			at := image.Pt(c.px(c.layout.Margin), c.px(c.layout.WindowTop(p.PageIndex)))
			draw.Draw(page, slice.Bounds().Add(at), slice, image.Point{}, draw.Src)
		}

		if p.PageIndex == 0 {
			c.caption(page, c.title, c.layout.Header*0.45, titleMM, inkColor)
			c.caption(page, "Generated at: "+generated.Format(dateLayout), c.layout.Header*0.75, stampMM, mutedColor)
		}
		if p.PageIndex == len(placements)-1 {
			c.caption(page, c.footer, c.layout.PageHeight-c.layout.Margin*0.4, footerMM, mutedColor)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", p.PageIndex, err)
		}
		pages = append(pages, &buf)
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{
		Width:  c.layout.PageWidth * ptPerMM,
		Height: c.layout.PageHeight * ptPerMM,
	}
	imp.Pos = types.Full

	if err := api.ImportImages(nil, w, pages, imp, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}

	return placements, nil
}

// caption draws s centered horizontally with its baseline at baselineMM,
// scaled so the face's full height spans heightMM.
func (c *composer) caption(dst *image.NRGBA, s string, baselineMM, heightMM float64, ink color.Color) {
	if s == "" {
		return
	}

	m := c.face.Metrics()
	w := font.MeasureString(c.face, s).Ceil()
	h := m.Height.Ceil()
	if w == 0 || h == 0 {
		return
	}

	tmp := imaging.New(w, h, color.Transparent)
	d := &font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(ink),
		Face: c.face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(s)

	scale := float64(c.px(heightMM)) / float64(h)
	sw := max(int(math.Round(float64(w)*scale)), 1)
	sh := max(int(math.Round(float64(h)*scale)), 1)
	text := imaging.Resize(tmp, sw, sh, imaging.Lanczos)

	ascent := int(math.Round(float64(m.Ascent.Ceil()) * scale))
	at := image.Pt((dst.Bounds().Dx()-sw)/2, c.px(baselineMM)-ascent)
	draw.Draw(dst, text.Bounds().Add(at), text, image.Point{}, draw.Over)
}
