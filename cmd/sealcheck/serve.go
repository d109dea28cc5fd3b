package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve verification sessions over HTTP",
		Long: `Starts the HTTP session adapter. Each session created under
/api/sessions runs its own verification workflow against the backend.
/healthz reports liveness and /readyz reports readiness once the optional
database and storage systems have started.`,
		Example: `  sealcheck serve
  sealcheck serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}

			srv, err := NewServer(a.cfg)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			select {
			case <-cmd.Context().Done():
			case err := <-srv.http.errs:
				srv.Shutdown(a.cfg.ShutdownTimeoutDuration())
				return fmt.Errorf("http server: %w", err)
			}

			return srv.Shutdown(a.cfg.ShutdownTimeoutDuration())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default server.port)")

	return cmd
}
