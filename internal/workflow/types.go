package workflow

import (
	"slices"
	"time"
)

// Step is the workflow's current stage gate.
type Step int

// Steps are strictly ordered; step n requires the output of step n-1.
const (
	StepUpload Step = iota + 1
	StepDetect
	StepSelect
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepDetect:
		return "detect"
	case StepSelect:
		return "select"
	case StepResult:
		return "result"
	default:
		return "unknown"
	}
}

// FileRef identifies a PDF accepted by the backend.
// PageCount is extracted locally and is nil when the file could not be parsed.
type FileRef struct {
	Filename   string `json:"filename" yaml:"filename"`
	ServerPath string `json:"server_path" yaml:"server_path"`
	SizeBytes  int64  `json:"size_bytes" yaml:"size_bytes"`
	PageCount  *int   `json:"page_count,omitempty" yaml:"page_count,omitempty"`
}

// SealCandidate is a circular stamp region detected in the uploaded document.
// Diameter is in millimeters; X, Y and Radius are pixel coordinates on the
// rendered page. Page is 1-based and nil when the backend did not report it.
type SealCandidate struct {
	ID       int     `json:"id" yaml:"id"`
	Diameter float64 `json:"diameter" yaml:"diameter"`
	X        int     `json:"x" yaml:"x"`
	Y        int     `json:"y" yaml:"y"`
	Radius   int     `json:"radius" yaml:"radius"`
	Page     *int    `json:"page,omitempty" yaml:"page,omitempty"`
	ImageURL string  `json:"image_url" yaml:"image_url"`
}

// TemplateRef names a reference seal image known to the backend.
type TemplateRef string

// Comparison is the outcome of a committed compare call, bound to the
// selection it was produced for.
type Comparison struct {
	Report     string        `json:"report" yaml:"report"`
	Seal       SealCandidate `json:"seal" yaml:"seal"`
	Template   TemplateRef   `json:"template" yaml:"template"`
	ComparedAt time.Time     `json:"compared_at" yaml:"compared_at"`
}

// Session is the complete workflow state of one verification.
// Only the Controller mutates it; everything else receives snapshots.
type Session struct {
	UploadedFile     *FileRef        `json:"uploaded_file,omitempty" yaml:"uploaded_file,omitempty"`
	Seals            []SealCandidate `json:"seals" yaml:"seals"`
	SelectedSeal     *SealCandidate  `json:"selected_seal,omitempty" yaml:"selected_seal,omitempty"`
	ComparisonPath   string          `json:"comparison_path,omitempty" yaml:"comparison_path,omitempty"`
	SelectedTemplate TemplateRef     `json:"selected_template,omitempty" yaml:"selected_template,omitempty"`
	Result           *Comparison     `json:"result,omitempty" yaml:"result,omitempty"`
	Step             Step            `json:"step" yaml:"step"`
}

// Ready reports whether both a seal and a template are selected.
func (s *Session) Ready() bool {
	return s.SelectedSeal != nil && s.SelectedTemplate != ""
}

// FindSeal returns the detected candidate with the given id.
func (s *Session) FindSeal(id int) (SealCandidate, bool) {
	i := slices.IndexFunc(s.Seals, func(c SealCandidate) bool {
		return c.ID == id
	})
	if i < 0 {
		return SealCandidate{}, false
	}
	return s.Seals[i].clone(), true
}

func (s *Session) clone() Session {
	out := Session{
		ComparisonPath:   s.ComparisonPath,
		SelectedTemplate: s.SelectedTemplate,
		Step:             s.Step,
		Seals:            make([]SealCandidate, len(s.Seals)),
	}

	for i, c := range s.Seals {
		out.Seals[i] = c.clone()
	}

	if s.UploadedFile != nil {
		f := *s.UploadedFile
		if f.PageCount != nil {
			n := *f.PageCount
			f.PageCount = &n
		}
		out.UploadedFile = &f
	}

	if s.SelectedSeal != nil {
		c := s.SelectedSeal.clone()
		out.SelectedSeal = &c
	}

	if s.Result != nil {
		r := *s.Result
		r.Seal = r.Seal.clone()
		out.Result = &r
	}

	return out
}

// matchesResult reports whether Result still describes the current selection.
func (s *Session) matchesResult() bool {
	return s.Result != nil &&
		s.SelectedSeal != nil &&
		s.SelectedSeal.equal(s.Result.Seal) &&
		s.SelectedTemplate == s.Result.Template
}

// dropStaleResult returns a Result step to Select once the selection moved on.
func (s *Session) dropStaleResult() {
	if s.Result == nil || s.matchesResult() {
		return
	}
	s.Result = nil
	if s.Step == StepResult {
		s.Step = StepSelect
	}
}

func (c SealCandidate) equal(o SealCandidate) bool {
	if (c.Page == nil) != (o.Page == nil) {
		return false
	}
	if c.Page != nil && *c.Page != *o.Page {
		return false
	}
	c.Page, o.Page = nil, nil
	return c == o
}

func (c SealCandidate) clone() SealCandidate {
	if c.Page != nil {
		p := *c.Page
		c.Page = &p
	}
	return c
}

func newSession() Session {
	return Session{
		Seals: []SealCandidate{},
		Step:  StepUpload,
	}
}
