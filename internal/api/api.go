// Package api exposes verification sessions, the template catalog, and the
// verification history over HTTP. Each session wraps one workflow.Controller.
package api

import (
	"net/http"

	"github.com/JaimeStill/sealcheck/internal/infrastructure"
	"github.com/JaimeStill/sealcheck/pkg/middleware"
	"github.com/JaimeStill/sealcheck/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The session sweeper is registered with the infrastructure lifecycle.
func NewModule(infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(infra)
	domain := NewDomain(runtime)
	domain.Sessions.Start(runtime.Lifecycle)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(runtime.Config.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.CORS(&runtime.Config.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
