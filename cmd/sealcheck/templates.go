package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/sealcheck/internal/templates"
	"github.com/JaimeStill/sealcheck/internal/workflow"
)

const uploadConcurrency = 4

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List and upload reference seal templates",
	}

	cmd.AddCommand(newTemplatesListCmd(a))
	cmd.AddCommand(newTemplatesUploadCmd(a))

	return cmd
}

func newTemplatesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the templates known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := a.infrastructure()
			if err != nil {
				return err
			}
			defer infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())

			refs, err := infra.Templates.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			out := map[string][]workflow.TemplateRef{"templates": refs}
			return render(cmd.OutOrStdout(), a.format, out, func(w io.Writer) error {
				if len(refs) == 0 {
					fmt.Fprintln(w, "no templates")
					return nil
				}
				for _, ref := range refs {
					fmt.Fprintln(w, ref)
				}
				return nil
			})
		},
	}
}

func newTemplatesUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload reference template images",
		Example: `  sealcheck templates upload ./company_a.png
  sealcheck templates upload ./seals/*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := a.infrastructure()
			if err != nil {
				return err
			}
			defer infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration())

			refs, err := uploadTemplates(cmd.Context(), infra.Templates, args)
			if err != nil {
				return err
			}

			out := map[string][]workflow.TemplateRef{"templates": refs}
			return render(cmd.OutOrStdout(), a.format, out, func(w io.Writer) error {
				for _, ref := range refs {
					if _, err := fmt.Fprintf(w, "uploaded %s\n", ref); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// uploadTemplates uploads each file concurrently. The first failure
// cancels the uploads still in progress. Refs are returned in argument order.
func uploadTemplates(ctx context.Context, catalog *templates.Catalog, paths []string) ([]workflow.TemplateRef, error) {
	refs := make([]workflow.TemplateRef, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, p := range paths {
		g.Go(func() error {
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()

			ref, err := catalog.Upload(gctx, filepath.Base(p), f)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}
