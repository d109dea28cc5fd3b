package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/sealcheck/internal/backend"
	"github.com/JaimeStill/sealcheck/internal/templates"
	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/handlers"
	"github.com/JaimeStill/sealcheck/pkg/routes"
)

type templatesHandler struct {
	catalog *templates.Catalog
	images  func(r *http.Request, name workflow.TemplateRef) ([]byte, error)
	logger  *slog.Logger
	maxSize int64
}

func newTemplatesHandler(catalog *templates.Catalog, client *backend.Client, logger *slog.Logger, maxSize int64) *templatesHandler {
	return &templatesHandler{
		catalog: catalog,
		images: func(r *http.Request, name workflow.TemplateRef) ([]byte, error) {
			return client.TemplateImage(r.Context(), name)
		},
		logger:  logger.With("handler", "templates"),
		maxSize: maxSize,
	}
}

func (h *templatesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/templates",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "POST", Pattern: "", Handler: h.upload},
			{Method: "GET", Pattern: "/{name}", Handler: h.image},
		},
	}
}

// list returns the catalog; refresh=true bypasses the cache.
func (h *templatesHandler) list(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	var (
		refs []workflow.TemplateRef
		err  error
	)
	if refresh {
		refs, err = h.catalog.Refresh(r.Context())
	} else {
		refs, err = h.catalog.List(r.Context())
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"templates": refs})
}

func (h *templatesHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", workflow.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	ref, err := h.catalog.Upload(r.Context(), header.Filename, file)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, map[string]any{"template": ref})
}

func (h *templatesHandler) image(w http.ResponseWriter, r *http.Request) {
	name := workflow.TemplateRef(r.PathValue("name"))

	data, err := h.images(r, name)
	if err != nil {
		status := http.StatusBadGateway
		if backend.IsNotFound(err) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
