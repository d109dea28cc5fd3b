package api

import (
	"github.com/JaimeStill/sealcheck/internal/infrastructure"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     infra.Config.API.Pagination,
	}
}
