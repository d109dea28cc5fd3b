package records

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/sealcheck/pkg/repository"
)

const (
	table   = "verifications"
	columns = "id, filename, server_path, page_count, seal_id, diameter, seal_page, template, report, compared_at, created_at"
	order   = "ORDER BY compared_at DESC, id"
)

// Filters narrows history queries. Nil fields are ignored.
// Filename uses case-insensitive contains matching; Template is exact.
// Since and Until bound compared_at (inclusive, exclusive).
type Filters struct {
	Filename *string    `json:"filename,omitempty"`
	Template *string    `json:"template,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Dates accept RFC 3339 or YYYY-MM-DD; unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}
	if tpl := values.Get("template"); tpl != "" {
		f.Template = &tpl
	}
	f.Since = parseTime(values.Get("since"))
	f.Until = parseTime(values.Get("until"))

	return f
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

type where struct {
	conds []string
	args  []any
}

// add appends a condition; each %d in cond receives the argument's position.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	n := len(w.args)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "%d", fmt.Sprint(n)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func buildWhere(search *string, f Filters) *where {
	w := &where{}

	if search != nil {
		w.add("(filename ILIKE $%d OR template ILIKE $%d OR report ILIKE $%d)", contains(*search))
	}
	if f.Filename != nil {
		w.add("filename ILIKE $%d", contains(*f.Filename))
	}
	if f.Template != nil {
		w.add("template = $%d", *f.Template)
	}
	if f.Since != nil {
		w.add("compared_at >= $%d", *f.Since)
	}
	if f.Until != nil {
		w.add("compared_at < $%d", *f.Until)
	}

	return w
}

func countQuery(w *where) (string, []any) {
	return "SELECT COUNT(*) FROM " + table + w.String(), w.args
}

func pageQuery(w *where, limit, offset int) (string, []any) {
	args := append(append([]any{}, w.args...), limit, offset)
	q := fmt.Sprintf(
		"SELECT %s FROM %s%s %s LIMIT $%d OFFSET $%d",
		columns, table, w.String(), order, len(args)-1, len(args),
	)
	return q, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.Filename,
		&r.ServerPath,
		&r.PageCount,
		&r.SealID,
		&r.Diameter,
		&r.SealPage,
		&r.Template,
		&r.Report,
		&r.ComparedAt,
		&r.CreatedAt,
	)
	return r, err
}
