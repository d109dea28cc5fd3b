package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/sealcheck/internal/infrastructure"
	"github.com/JaimeStill/sealcheck/internal/report"
	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

type verifyOptions struct {
	pdf      string
	template string
	seal     int
	out      string
	noReport bool
	keep     bool
}

// verifyResult is the structured output of a verify run.
type verifyResult struct {
	File       workflow.FileRef         `json:"file" yaml:"file"`
	Seals      []workflow.SealCandidate `json:"seals" yaml:"seals"`
	Comparison workflow.Comparison      `json:"comparison" yaml:"comparison"`
	Report     *report.Document         `json:"report,omitempty" yaml:"report,omitempty"`
	ReportPath string                   `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Warning    string                   `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func newVerifyCmd(a *app) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the full verification workflow for one PDF",
		Long: `Uploads a PDF, detects seal candidates, compares the chosen seal against a
reference template, prints the comparison, and exports the PDF report.

Backend temp files are cleaned up afterwards unless --keep is given.`,
		Example: `  # Compare the first detected seal against a template
  sealcheck verify --pdf contract.pdf --template company_a.png

  # Pick seal 3 and write the report to a specific path
  sealcheck verify --pdf contract.pdf --template company_a.png --seal 3 --out report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := a.infrastructure()
			if err != nil {
				return err
			}
			defer infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())

			result, err := runVerify(cmd.Context(), infra, opts)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), a.format, result, func(w io.Writer) error {
				return printVerify(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "PDF file to verify")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Reference template name")
	cmd.Flags().IntVarP(&opts.seal, "seal", "s", 0, "Seal id to compare (default: first detected)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Report path or directory (default: report.output_dir)")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "Skip the PDF report export")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "Keep backend temp files")
	cmd.MarkFlagRequired("pdf")
	cmd.MarkFlagRequired("template")

	return cmd
}

func runVerify(ctx context.Context, infra *infrastructure.Infrastructure, opts *verifyOptions) (*verifyResult, error) {
	logger := infra.Logger.With("command", "verify")

	known, err := infra.Templates.Contains(ctx, workflow.TemplateRef(opts.template))
	if err != nil {
		return nil, err
	}
	if !known {
		refs, _ := infra.Templates.List(ctx)
		return nil, fmt.Errorf("%w: unknown template %q (available: %v)", workflow.ErrInvalidInput, opts.template, refs)
	}

	ctrl := workflow.New(infra.WorkflowRuntime())
	stop := ctrl.Observe(func(s workflow.Session) {
		logger.Debug("step", "step", s.Step.String(), "seals", len(s.Seals), "ready", s.Ready())
	})
	defer stop()

	result := &verifyResult{}
	if !opts.keep {
		defer func() {
			_, warning, _ := ctrl.NewComparison(context.WithoutCancel(ctx), nil)
			if warning != nil {
				logger.Warn("backend cleanup failed", "error", warning.Err)
				result.Warning = warning.Error()
			}
		}()
	}

	f, err := os.Open(opts.pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflow.ErrInvalidInput, err)
	}
	s, err := ctrl.Upload(ctx, filepath.Base(opts.pdf), f)
	f.Close()
	if err != nil {
		return nil, err
	}
	result.File = *s.UploadedFile

	if s, err = ctrl.DetectSeals(ctx); err != nil {
		return nil, err
	}
	result.Seals = s.Seals
	if len(s.Seals) == 0 {
		return nil, fmt.Errorf("no seals detected in %s", opts.pdf)
	}

	id := opts.seal
	if id == 0 {
		id = s.Seals[0].ID
	}
	if !slices.ContainsFunc(s.Seals, func(c workflow.SealCandidate) bool { return c.ID == id }) {
		return nil, fmt.Errorf("%w: seal %d not detected", workflow.ErrInvalidInput, id)
	}

	if _, err := ctrl.SelectSeal(id); err != nil {
		return nil, err
	}
	if _, err := ctrl.SelectTemplate(workflow.TemplateRef(opts.template)); err != nil {
		return nil, err
	}

	if s, err = ctrl.CompareSeals(ctx); err != nil {
		return nil, err
	}
	result.Comparison = *s.Result

	if opts.noReport {
		return result, nil
	}

	var buf bytes.Buffer
	doc, err := ctrl.Export(ctx, &buf)
	if err != nil {
		return nil, err
	}

	path := reportPath(opts.out, infra.Config.Report.OutputDir, doc.Filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	result.Report = doc
	result.ReportPath = path
	return result, nil
}

// reportPath resolves --out: an existing directory receives the generated
// file name, anything else is used as the file path.
func reportPath(out, defaultDir, filename string) string {
	if out == "" {
		return filepath.Join(defaultDir, filename)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, filename)
	}
	return out
}

func printVerify(w io.Writer, r *verifyResult) error {
	c := r.Comparison

	fmt.Fprintf(w, "File:      %s", r.File.Filename)
	if r.File.PageCount != nil {
		fmt.Fprintf(w, " (%d pages)", *r.File.PageCount)
	}
	fmt.Fprintf(w, "\nDetected:  %d seal(s)\n", len(r.Seals))
	fmt.Fprintf(w, "Seal:      #%d  %.1fmm", c.Seal.ID, c.Seal.Diameter)
	if c.Seal.Page != nil {
		fmt.Fprintf(w, "  page %d", *c.Seal.Page)
	}
	fmt.Fprintf(w, "\nTemplate:  %s\n\n", c.Template)
	fmt.Fprintln(w, formatting.PlainText(c.Report))

	if r.Report != nil {
		fmt.Fprintf(w, "\nReport:    %s (%d pages, %s)\n", r.ReportPath, r.Report.Pages, formatting.FormatBytes(r.Report.SizeBytes, 1))
		if r.Report.ArchiveKey != "" {
			fmt.Fprintf(w, "Archived:  %s\n", r.Report.ArchiveKey)
		}
	}
	if r.Warning != "" {
		fmt.Fprintf(w, "Warning:   %s\n", r.Warning)
	}
	return nil
}
