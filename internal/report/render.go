package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

const (
	padding    = 24
	lineGap    = 5
	panelGap   = 8
	dateLayout = "2006-01-02 15:04:05 MST"
)

var (
	inkColor    = color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	mutedColor  = color.NRGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	borderColor = color.NRGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
	panelColor  = color.NRGBA{R: 0xf9, G: 0xfa, B: 0xfb, A: 0xff}
)

// Verification is everything shown in an exported report.
// Nil images render as placeholders.
type Verification struct {
	SourceFile    string
	SealID        int
	Diameter      float64
	Page          *int
	Template      string
	Report        string
	ComparedAt    time.Time
	SealImage     image.Image
	TemplateImage image.Image
}

// LoadFace returns the OpenType face at path, or the built-in 7x13
// bitmap face when path is empty. The bitmap face covers ASCII and
// Latin-1 only.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// Renderer draws a Verification onto a single tall image of fixed width.
type Renderer struct {
	width int
	face  font.Face
}

// NewRenderer creates a renderer producing images width pixels wide.
func NewRenderer(width int, face font.Face) *Renderer {
	return &Renderer{width: width, face: face}
}

func (r *Renderer) lineHeight() int {
	return r.face.Metrics().Height.Ceil() + lineGap
}

// Render lays out both seal images side by side, their captions, the
// comparison metadata and the wrapped analysis text.
func (r *Renderer) Render(v Verification) *image.NRGBA {
	lh := r.lineHeight()
	inner := r.width - 2*padding
	panel := (inner - padding) / 2

	meta := []string{
		"Source file: " + fallback(v.SourceFile, "unknown"),
		"Compared at: " + v.ComparedAt.Format(dateLayout),
	}
	body := wrap(r.face, formatting.PlainText(v.Report), inner)

	height := padding +
		lh + panel + panelGap + lh +
		padding + len(meta)*lh +
		padding/2 + lh + len(body)*lh +
		padding

	canvas := imaging.New(r.width, height, color.White)
	y := padding

	left := image.Pt(padding, y)
	right := image.Pt(padding+panel+padding, y)
	r.text(canvas, "Detected seal", left.X, y, mutedColor)
	r.text(canvas, "Reference template", right.X, y, mutedColor)
	y += lh

	r.panel(canvas, image.Rect(left.X, y, left.X+panel, y+panel), v.SealImage)
	r.panel(canvas, image.Rect(right.X, y, right.X+panel, y+panel), v.TemplateImage)
	y += panel + panelGap

	r.text(canvas, truncate(r.face, sealCaption(v), panel), left.X, y, inkColor)
	r.text(canvas, truncate(r.face, fallback(v.Template, "none"), panel), right.X, y, inkColor)
	y += lh + padding/2

	fill(canvas, image.Rect(padding, y, r.width-padding, y+1), borderColor)
	y += padding / 2

	for _, line := range meta {
		r.text(canvas, line, padding, y, mutedColor)
		y += lh
	}
	y += padding / 2

	r.text(canvas, "Comparison analysis", padding, y, inkColor)
	y += lh

	for _, line := range body {
		r.text(canvas, line, padding, y, inkColor)
		y += lh
	}

	return canvas
}

func (r *Renderer) panel(dst *image.NRGBA, rect image.Rectangle, img image.Image) {
	fill(dst, rect, borderColor)
	inset := rect.Inset(1)
	fill(dst, inset, panelColor)

	if img == nil {
		msg := "image unavailable"
		w := font.MeasureString(r.face, msg).Ceil()
		r.text(dst, msg, inset.Min.X+(inset.Dx()-w)/2, inset.Min.Y+inset.Dy()/2, mutedColor)
		return
	}

	fitted := imaging.Fit(img, inset.Dx()-8, inset.Dy()-8, imaging.Lanczos)
	b := fitted.Bounds()
	at := image.Pt(
		inset.Min.X+(inset.Dx()-b.Dx())/2,
		inset.Min.Y+(inset.Dy()-b.Dy())/2,
	)
	draw.Draw(dst, b.Sub(b.Min).Add(at), fitted, b.Min, draw.Over)
}

// text draws s with its top edge at y.
func (r *Renderer) text(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y+r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func fill(dst draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func sealCaption(v Verification) string {
	caption := fmt.Sprintf("Seal #%d  %.2f mm", v.SealID, v.Diameter)
	if v.Page != nil {
		caption += fmt.Sprintf("  page %d", *v.Page)
	}
	return caption
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// wrap breaks text into lines no wider than max pixels. Paragraph breaks
// are kept; words wider than a line are split by rune.
func wrap(face font.Face, text string, max int) []string {
	var lines []string

	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		cur := ""
		for _, word := range words {
			for font.MeasureString(face, word).Ceil() > max {
				head, tail := splitWidth(face, word, max)
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				lines = append(lines, head)
				word = tail
			}
			if word == "" {
				continue
			}

			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}

			if font.MeasureString(face, candidate).Ceil() <= max {
				cur = candidate
				continue
			}

			lines = append(lines, cur)
			cur = word
		}

		if cur != "" {
			lines = append(lines, cur)
		}
	}

	return lines
}

// splitWidth returns the longest rune prefix of s that fits in max pixels,
// always taking at least one rune.
func splitWidth(face font.Face, s string, max int) (string, string) {
	runes := []rune(s)
	n := 1
	for n < len(runes) && font.MeasureString(face, string(runes[:n+1])).Ceil() <= max {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func truncate(face font.Face, s string, max int) string {
	if font.MeasureString(face, s).Ceil() <= max {
		return s
	}
	head, _ := splitWidth(face, s, max-font.MeasureString(face, "…").Ceil())
	return head + "…"
}
