package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/infrastructure"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	format     string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "sealcheck",
		Short: "Verify seal imprints in PDF documents against reference templates",
		Long: `Sealcheck drives the seal verification workflow: upload a PDF, detect
circular stamp imprints, compare one against a reference template, and export
the comparison as a paginated PDF report.

Detection and comparison run on a separate backend service configured under
[backend] in config.toml or with SEALCHECK_BACKEND_URL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			if !validFormat(a.format) {
				return fmt.Errorf("unsupported output format %q", a.format)
			}

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default $SEALCHECK_CONFIG or config.toml)")
	cmd.PersistentFlags().StringVarP(&a.format, "output", "o", "text", "Output format: text, json, or yaml")

	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newTemplatesCmd(a))
	cmd.AddCommand(newPaginateCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

// infrastructure builds and starts the shared systems, waiting for the
// optional database and storage startup hooks to finish.
func (a *app) infrastructure() (*infrastructure.Infrastructure, error) {
	infra, err := infrastructure.New(a.cfg)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	infra.Lifecycle.WaitForStartup()
	return infra, nil
}
