package report_test

import (
	"errors"
	"math"
	"testing"

	"github.com/JaimeStill/sealcheck/internal/report"
)

func TestLayoutA4(t *testing.T) {
	l := report.A4
	if got := l.ContentWidth(); got != 190 {
		t.Errorf("ContentWidth() = %g, want 190", got)
	}
	if got := l.FirstPageHeight(); got != 252 {
		t.Errorf("FirstPageHeight() = %g, want 252", got)
	}
	if got := l.PageContentHeight(); got != 277 {
		t.Errorf("PageContentHeight() = %g, want 277", got)
	}
	if got := l.WindowTop(0); got != 35 {
		t.Errorf("WindowTop(0) = %g, want 35", got)
	}
	if got := l.WindowTop(3); got != 10 {
		t.Errorf("WindowTop(3) = %g, want 10", got)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name    string
		src     report.Size
		offsets []float64
		ranges  [][2]float64
	}{
		{
			name:    "three pages",
			src:     report.Size{Width: 1000, Height: 3000},
			offsets: []float64{0, -242, -519},
			ranges:  [][2]float64{{0, 252}, {252, 529}, {529, 570}},
		},
		{
			name:    "exactly first page",
			src:     report.Size{Width: 190, Height: 252},
			offsets: []float64{0},
			ranges:  [][2]float64{{0, 252}},
		},
		{
			name:    "exactly two pages",
			src:     report.Size{Width: 190, Height: 529},
			offsets: []float64{0, -242},
			ranges:  [][2]float64{{0, 252}, {252, 529}},
		},
		{
			name:    "just over first page",
			src:     report.Size{Width: 190, Height: 253},
			offsets: []float64{0, -242},
			ranges:  [][2]float64{{0, 252}, {252, 253}},
		},
		{
			name:    "short image",
			src:     report.Size{Width: 760, Height: 100},
			offsets: []float64{0},
			ranges:  [][2]float64{{0, 25}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := report.Paginate(tt.src, report.A4)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			if len(got) != len(tt.offsets) {
				t.Fatalf("Paginate() returned %d pages, want %d", len(got), len(tt.offsets))
			}

			for i, p := range got {
				if p.PageIndex != i {
					t.Errorf("page %d: PageIndex = %d", i, p.PageIndex)
				}
				if p.OffsetMM != tt.offsets[i] {
					t.Errorf("page %d: OffsetMM = %g, want %g", i, p.OffsetMM, tt.offsets[i])
				}
				if p.Start != tt.ranges[i][0] || p.End != tt.ranges[i][1] {
					t.Errorf("page %d: slice = [%g,%g), want [%g,%g)", i, p.Start, p.End, tt.ranges[i][0], tt.ranges[i][1])
				}
			}
		})
	}
}

func TestPaginateTilesWithoutGapOrOverlap(t *testing.T) {
	for h := 1.0; h <= 5000; h += 37.5 {
		src := report.Size{Width: 720, Height: h}
		got, err := report.Paginate(src, report.A4)
		if err != nil {
			t.Fatalf("height %g: %v", h, err)
		}

		hs := report.ScaledHeight(src, report.A4)
		if got[0].Start != 0 {
			t.Errorf("height %g: first slice starts at %g", h, got[0].Start)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Start != got[i-1].End {
				t.Errorf("height %g: page %d starts at %g, previous ended at %g", h, i, got[i].Start, got[i-1].End)
			}
			if got[i].End <= got[i].Start {
				t.Errorf("height %g: page %d is empty", h, i)
			}
		}
		if last := got[len(got)-1].End; math.Abs(last-hs) > 1e-9 {
			t.Errorf("height %g: last slice ends at %g, want %g", h, last, hs)
		}

		want := 1
		if hs > 252 {
			want += int(math.Ceil((hs - 252) / 277))
		}
		if len(got) != want {
			t.Errorf("height %g (hs %g): %d pages, want %d", h, hs, len(got), want)
		}
	}
}

func TestPaginateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		src    report.Size
		layout report.Layout
	}{
		{"zero width", report.Size{Width: 0, Height: 10}, report.A4},
		{"negative height", report.Size{Width: 10, Height: -1}, report.A4},
		{"nan width", report.Size{Width: math.NaN(), Height: 10}, report.A4},
		{"infinite height", report.Size{Width: 10, Height: math.Inf(1)}, report.A4},
		{"margins consume width", report.Size{Width: 10, Height: 10}, report.Layout{PageWidth: 20, PageHeight: 297, Margin: 10, Header: 35}},
		{"header consumes height", report.Size{Width: 10, Height: 10}, report.Layout{PageWidth: 210, PageHeight: 40, Margin: 10, Header: 35}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report.Paginate(tt.src, tt.layout)
			if !errors.Is(err, report.ErrInvalidDimensions) {
				t.Errorf("Paginate() error = %v, want ErrInvalidDimensions", err)
			}
		})
	}
}
