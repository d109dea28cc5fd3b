package records

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format selects the history export encoding.
type Format string

// Supported export formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatParquet:
		return true
	}
	return false
}

// ContentType returns the media type for the encoded output.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/json"
	}
}

// Row is the flat parquet representation of a Record.
type Row struct {
	ID         string    `parquet:"id"`
	Filename   string    `parquet:"filename"`
	ServerPath string    `parquet:"server_path"`
	PageCount  *int64    `parquet:"page_count,optional"`
	SealID     int64     `parquet:"seal_id"`
	Diameter   float64   `parquet:"diameter"`
	SealPage   *int64    `parquet:"seal_page,optional"`
	Template   string    `parquet:"template"`
	Report     string    `parquet:"report"`
	ComparedAt time.Time `parquet:"compared_at"`
	CreatedAt  time.Time `parquet:"created_at"`
}

func toRow(r Record) Row {
	return Row{
		ID:         r.ID.String(),
		Filename:   r.Filename,
		ServerPath: r.ServerPath,
		PageCount:  widen(r.PageCount),
		SealID:     int64(r.SealID),
		Diameter:   r.Diameter,
		SealPage:   widen(r.SealPage),
		Template:   r.Template,
		Report:     r.Report,
		ComparedAt: r.ComparedAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func widen(n *int) *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

// Encode writes records to w in the given format.
func Encode(w io.Writer, format Format, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatParquet:
		return writeParquet(w, recs)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

func writeParquet(w io.Writer, recs []Record) error {
	rows := make([]Row, len(recs))
	for i, r := range recs {
		rows[i] = toRow(r)
	}

	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
