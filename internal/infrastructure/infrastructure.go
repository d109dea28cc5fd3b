// Package infrastructure assembles the systems shared by every sealcheck
// surface: logging, lifecycle, the detection backend, the template catalog,
// the report exporter, and the optional history database and report archive.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/sealcheck/internal/backend"
	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/records"
	"github.com/JaimeStill/sealcheck/internal/report"
	"github.com/JaimeStill/sealcheck/internal/templates"
	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/database"
	"github.com/JaimeStill/sealcheck/pkg/lifecycle"
	"github.com/JaimeStill/sealcheck/pkg/storage"
)

// Infrastructure holds the core systems required by the CLI and server.
// Database, Storage, and Records are nil when disabled in config.
type Infrastructure struct {
	Config    *config.Config
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Backend   *backend.Client
	Templates *templates.Catalog
	Exporter  *report.Exporter
	Database  database.System
	Storage   storage.System
	Records   records.System
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, NewLogger(&cfg.Logging, os.Stderr))
}

// NewWithLogger is New with an explicit logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{
		Config:    cfg,
		Lifecycle: lifecycle.New(),
		Logger:    logger,
	}

	client, err := backend.New(&cfg.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("backend init failed: %w", err)
	}
	infra.Backend = client
	infra.Templates = templates.New(client, &cfg.Templates, logger)

	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
		infra.Records = records.New(db, logger, cfg.API.Pagination)
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	var archive storage.System
	if cfg.Report.Archive {
		if infra.Storage == nil {
			return nil, fmt.Errorf("report archive requires storage to be enabled")
		}
		archive = infra.Storage
	}

	exporter, err := report.NewExporter(&cfg.Report, archive, logger)
	if err != nil {
		return nil, fmt.Errorf("report init failed: %w", err)
	}
	infra.Exporter = exporter

	return infra, nil
}

// Start registers the optional database and storage systems with the
// lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// WorkflowRuntime returns the dependencies for a new workflow controller.
func (i *Infrastructure) WorkflowRuntime() *workflow.Runtime {
	rt := &workflow.Runtime{
		Backend:  i.Backend,
		Session:  &i.Config.Session,
		Exporter: i.Exporter,
		Logger:   i.Logger,
	}
	if i.Records != nil {
		rt.Recorder = i.Records
	}
	return rt
}
