package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/sealcheck/internal/api"
	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/infrastructure"
	"github.com/JaimeStill/sealcheck/pkg/module"
)

// Server wires the API module and health endpoints onto one HTTP listener.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

// NewServer builds the infrastructure and router for cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	router, err := buildRouter(infra)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"backend", cfg.Backend.URL,
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func buildRouter(infra *infrastructure.Infrastructure) (*module.Router, error) {
	apiModule, err := api.NewModule(infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	router.Mount(apiModule)

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if pending := infra.Lifecycle.Unready(); len(pending) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, "waiting on "+strings.Join(pending, ", "))
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	return router, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Start registers infrastructure hooks and begins listening.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle context and waits for shutdown hooks.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
