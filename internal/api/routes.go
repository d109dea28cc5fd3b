package api

import (
	"net/http"

	"github.com/JaimeStill/sealcheck/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	groups := []routes.Group{
		newSessionHandler(
			domain.Sessions,
			domain.Templates,
			runtime.Logger,
			runtime.Config.Session.MaxUploadSizeBytes(),
		).routes(),
		newTemplatesHandler(
			domain.Templates,
			runtime.Backend,
			runtime.Logger,
			runtime.Config.Templates.MaxSizeBytes(),
		).routes(),
	}

	if domain.Records != nil {
		groups = append(groups, domain.Records.Handler().Routes())
	}
	if domain.Archive != nil {
		groups = append(groups, newArchiveHandler(domain.Archive, runtime.Logger).routes())
	}

	routes.Register(mux, groups...)

	for _, g := range groups {
		runtime.Logger.Debug("routes registered", "prefix", g.Prefix, "patterns", g.Patterns())
	}
}
