package records

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/pkg/handlers"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
	"github.com/JaimeStill/sealcheck/pkg/routes"
)

// Handler provides HTTP endpoints for verification history.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "records"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for history endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/records",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of records with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single record by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Delete removes a record by its UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export streams every matching record as an attachment.
// The format query parameter selects json (default), yaml, or parquet.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatJSON
	}
	if !format.Valid() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrInvalidFormat, format))
		return
	}

	var buf bytes.Buffer
	if _, err := h.sys.Export(r.Context(), format, FiltersFromQuery(r.URL.Query()), &buf); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	filename := fmt.Sprintf("verifications_%s.%s", time.Now().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
