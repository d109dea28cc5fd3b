package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/sealcheck/pkg/handlers"
	"github.com/JaimeStill/sealcheck/pkg/routes"
	"github.com/JaimeStill/sealcheck/pkg/storage"
)

// archiveHandler serves report PDFs previously archived to blob storage.
type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
