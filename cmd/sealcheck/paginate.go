package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/sealcheck/internal/report"
)

type paginateResult struct {
	Source       report.Size        `json:"source" yaml:"source"`
	Layout       report.Layout      `json:"layout" yaml:"layout"`
	ScaledHeight float64            `json:"scaled_height_mm" yaml:"scaled_height_mm"`
	Placements   []report.Placement `json:"placements" yaml:"placements"`
}

func newPaginateCmd(a *app) *cobra.Command {
	var width, height float64

	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Show how a report image of the given size is split across pages",
		Long: `Computes the page placements for a rendered report image using the page
geometry under [report] in the config. No backend is contacted.`,
		Example: `  sealcheck paginate --width 3000 --height 1000
  sealcheck paginate --width 720 --height 5400 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := report.Size{Width: width, Height: height}
			layout := report.LayoutFromConfig(&a.cfg.Report)

			placements, err := report.Paginate(src, layout)
			if err != nil {
				return err
			}

			result := paginateResult{
				Source:       src,
				Layout:       layout,
				ScaledHeight: report.ScaledHeight(src, layout),
				Placements:   placements,
			}

			return render(cmd.OutOrStdout(), a.format, result, func(w io.Writer) error {
				fmt.Fprintf(w, "%d page(s), scaled height %.2fmm\n", len(placements), result.ScaledHeight)
				for _, p := range placements {
					fmt.Fprintf(w, "page %d  offset %8.2fmm  slice [%.2f, %.2f)\n", p.PageIndex+1, p.OffsetMM, p.Start, p.End)
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "Source image width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "Source image height in pixels")
	cmd.MarkFlagRequired("width")
	cmd.MarkFlagRequired("height")

	return cmd
}
