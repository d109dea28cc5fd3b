package api

import (
	"github.com/JaimeStill/sealcheck/internal/records"
	"github.com/JaimeStill/sealcheck/internal/templates"
	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/storage"
)

// Domain holds all systems that comprise the API.
// Records and Archive are nil when their backing stores are disabled.
type Domain struct {
	Sessions  *Sessions
	Templates *templates.Catalog
	Records   records.System
	Archive   storage.System
}

// NewDomain creates the API systems from the runtime.
func NewDomain(runtime *Runtime) *Domain {
	sessions := NewSessions(
		runtime.Config.API.MaxSessions,
		runtime.Config.Session.IdleTimeoutDuration(),
		func() *workflow.Controller {
			return workflow.New(runtime.WorkflowRuntime())
		},
		runtime.Logger,
	)

	return &Domain{
		Sessions:  sessions,
		Templates: runtime.Templates,
		Records:   runtime.Records,
		Archive:   runtime.Storage,
	}
}
