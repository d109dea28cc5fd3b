// Package records persists committed seal comparisons to PostgreSQL
// and exposes them as a paginated, exportable verification history.
package records

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/internal/workflow"
)

// Record is one committed comparison.
type Record struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	Filename   string    `json:"filename" yaml:"filename"`
	ServerPath string    `json:"server_path" yaml:"server_path"`
	PageCount  *int      `json:"page_count" yaml:"page_count"`
	SealID     int       `json:"seal_id" yaml:"seal_id"`
	Diameter   float64   `json:"diameter" yaml:"diameter"`
	SealPage   *int      `json:"seal_page" yaml:"seal_page"`
	Template   string    `json:"template" yaml:"template"`
	Report     string    `json:"report" yaml:"report"`
	ComparedAt time.Time `json:"compared_at" yaml:"compared_at"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// FromComparison builds the record for a comparison of the given file.
// ID and CreatedAt are assigned on insert.
func FromComparison(file workflow.FileRef, c workflow.Comparison) Record {
	return Record{
		Filename:   file.Filename,
		ServerPath: file.ServerPath,
		PageCount:  file.PageCount,
		SealID:     c.Seal.ID,
		Diameter:   c.Seal.Diameter,
		SealPage:   c.Seal.Page,
		Template:   string(c.Template),
		Report:     c.Report,
		ComparedAt: c.ComparedAt,
	}
}
