package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvReportDPI         = "SEALCHECK_REPORT_DPI"
	EnvReportRenderWidth = "SEALCHECK_REPORT_RENDER_WIDTH"
	EnvReportFontPath    = "SEALCHECK_REPORT_FONT_PATH"
	EnvReportOutputDir   = "SEALCHECK_REPORT_OUTPUT_DIR"
	EnvReportArchive     = "SEALCHECK_REPORT_ARCHIVE"
)

// ReportConfig controls PDF export. Page geometry is in millimeters.
type ReportConfig struct {
	PageWidth   float64 `toml:"page_width"`
	PageHeight  float64 `toml:"page_height"`
	Margin      float64 `toml:"margin"`
	Header      float64 `toml:"header"`
	DPI         int     `toml:"dpi"`
	RenderWidth int     `toml:"render_width"`
	FontPath    string  `toml:"font_path"`
	Title       string  `toml:"title"`
	Footer      string  `toml:"footer"`
	OutputDir   string  `toml:"output_dir"`
	Archive     bool    `toml:"archive"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReportConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Archive always applies.
func (c *ReportConfig) Merge(overlay *ReportConfig) {
	if overlay.PageWidth != 0 {
		c.PageWidth = overlay.PageWidth
	}
	if overlay.PageHeight != 0 {
		c.PageHeight = overlay.PageHeight
	}
	if overlay.Margin != 0 {
		c.Margin = overlay.Margin
	}
	if overlay.Header != 0 {
		c.Header = overlay.Header
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.RenderWidth != 0 {
		c.RenderWidth = overlay.RenderWidth
	}
	if overlay.FontPath != "" {
		c.FontPath = overlay.FontPath
	}
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Footer != "" {
		c.Footer = overlay.Footer
	}
	if overlay.OutputDir != "" {
		c.OutputDir = overlay.OutputDir
	}
	c.Archive = overlay.Archive
}

func (c *ReportConfig) loadDefaults() {
	if c.PageWidth == 0 {
		c.PageWidth = 210
	}
	if c.PageHeight == 0 {
		c.PageHeight = 297
	}
	if c.Margin == 0 {
		c.Margin = 10
	}
	if c.Header == 0 {
		c.Header = 35
	}
	if c.DPI == 0 {
		c.DPI = 150
	}
	if c.RenderWidth == 0 {
		c.RenderWidth = 720
	}
	if c.Title == "" {
		c.Title = "Stamp Verification Report"
	}
	if c.Footer == "" {
		c.Footer = "Generated by AI Stamp Verification System"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

func (c *ReportConfig) loadEnv() {
	if v := os.Getenv(EnvReportDPI); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
	if v := os.Getenv(EnvReportRenderWidth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RenderWidth = n
		}
	}
	if v := os.Getenv(EnvReportFontPath); v != "" {
		c.FontPath = v
	}
	if v := os.Getenv(EnvReportOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvReportArchive); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Archive = b
		}
	}
}

func (c *ReportConfig) validate() error {
	if c.PageWidth <= 2*c.Margin {
		return fmt.Errorf("page_width %gmm leaves no content width with margin %gmm", c.PageWidth, c.Margin)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative")
	}
	if c.PageHeight <= c.Header+c.Margin {
		return fmt.Errorf("page_height %gmm leaves no first-page content with header %gmm", c.PageHeight, c.Header)
	}
	if c.Header < c.Margin {
		return fmt.Errorf("header must be at least the margin")
	}
	if c.DPI < 36 || c.DPI > 600 {
		return fmt.Errorf("dpi must be between 36 and 600: %d", c.DPI)
	}
	if c.RenderWidth < 200 {
		return fmt.Errorf("render_width must be at least 200px: %d", c.RenderWidth)
	}
	return nil
}
