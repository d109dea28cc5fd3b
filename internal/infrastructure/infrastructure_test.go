package infrastructure_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/infrastructure"
)

func finalized(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func TestNewDefaults(t *testing.T) {
	cfg := finalized(t)

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if infra.Backend == nil || infra.Templates == nil || infra.Exporter == nil {
		t.Fatal("core systems not initialized")
	}
	if infra.Database != nil || infra.Storage != nil || infra.Records != nil {
		t.Error("optional systems initialized while disabled")
	}
	if err := infra.Start(); err != nil {
		t.Errorf("Start: %v", err)
	}

	rt := infra.WorkflowRuntime()
	if rt.Backend == nil || rt.Exporter == nil || rt.Session != &cfg.Session {
		t.Errorf("runtime: %+v", rt)
	}
	if rt.Recorder != nil {
		t.Error("recorder set without database")
	}
}

func TestNewWithDatabase(t *testing.T) {
	cfg := finalized(t)
	cfg.Database.Enabled = true
	cfg.Database.DSN = "postgres://u:p@localhost:5432/sealcheck?sslmode=disable"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if infra.Records == nil || infra.WorkflowRuntime().Recorder == nil {
		t.Error("records not wired when database enabled")
	}
}

func TestArchiveRequiresStorage(t *testing.T) {
	cfg := finalized(t)
	cfg.Report.Archive = true

	if _, err := infrastructure.New(cfg); err == nil {
		t.Error("New accepted report.archive without storage")
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("probe", "k", "v")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("json handler not used: %s", buf.String())
	}

	buf.Reset()
	logger = infrastructure.NewLogger(&config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}
}
