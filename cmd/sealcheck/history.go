package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/sealcheck/internal/records"
	"github.com/JaimeStill/sealcheck/pkg/database"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
)

var errHistoryDisabled = fmt.Errorf("%w: verification history requires [database] enabled = true", database.ErrDisabled)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and export recorded verifications",
	}

	cmd.AddCommand(newHistoryListCmd(a))
	cmd.AddCommand(newHistoryExportCmd(a))

	return cmd
}

// historyFilters binds the shared filter flags.
type historyFilters struct {
	filename string
	template string
	since    string
	until    string
}

func (f *historyFilters) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filename, "filename", "", "Filter by file name (contains)")
	cmd.Flags().StringVar(&f.template, "template", "", "Filter by template name")
	cmd.Flags().StringVar(&f.since, "since", "", "Compared at or after (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "Compared before (RFC 3339 or YYYY-MM-DD)")
}

func (f *historyFilters) filters() records.Filters {
	values := map[string][]string{}
	for k, v := range map[string]string{
		"filename": f.filename,
		"template": f.template,
		"since":    f.since,
		"until":    f.until,
	} {
		if v != "" {
			values[k] = []string{v}
		}
	}
	return records.FiltersFromQuery(values)
}

func (a *app) records() (records.System, func(), error) {
	if !a.cfg.Database.Enabled {
		return nil, nil, errHistoryDisabled
	}

	infra, err := a.infrastructure()
	if err != nil {
		return nil, nil, err
	}
	stop := func() { infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration()) }

	if !infra.Database.Ready() {
		stop()
		return nil, nil, database.ErrNotReady
	}
	return infra.Records, stop, nil
}

func newHistoryListCmd(a *app) *cobra.Command {
	var (
		page    pagination.PageRequest
		search  string
		filters historyFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded verifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, stop, err := a.records()
			if err != nil {
				return err
			}
			defer stop()

			if search != "" {
				page.Search = &search
			}

			result, err := sys.List(cmd.Context(), page, filters.filters())
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), a.format, result, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "COMPARED\tFILE\tSEAL\tTEMPLATE\tID")
				for _, r := range result.Data {
					fmt.Fprintf(tw, "%s\t%s\t#%d\t%s\t%s\n",
						r.ComparedAt.Local().Format("2006-01-02 15:04"), r.Filename, r.SealID, r.Template, r.ID)
				}
				tw.Flush()
				fmt.Fprintf(w, "\npage %d of %d (%d total)\n", result.Page, result.TotalPages, result.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&page.PageSize, "page-size", 0, "Page size (default api.pagination.default_page_size)")
	cmd.Flags().StringVar(&search, "search", "", "Search file name, template, and report text")
	filters.bind(cmd)

	return cmd
}

func newHistoryExportCmd(a *app) *cobra.Command {
	var (
		format  string
		out     string
		filters historyFilters
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded verifications as JSON, YAML, or Parquet",
		Example: `  sealcheck history export --format parquet --out verifications.parquet
  sealcheck history export --template company_a.png --since 2026-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := records.Format(format)
			if !f.Valid() {
				return fmt.Errorf("%w: %q", records.ErrInvalidFormat, format)
			}

			sys, stop, err := a.records()
			if err != nil {
				return err
			}
			defer stop()

			w := cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := sys.Export(cmd.Context(), f, filters.filters(), w)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d record(s) to %s\n", n, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json, yaml, or parquet")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	filters.bind(cmd)

	return cmd
}
