package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/internal/templates"
	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/handlers"
	"github.com/JaimeStill/sealcheck/pkg/routes"
)

// multipart framing allowance on top of the PDF size limit
const formOverhead = 1 << 20

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID uuid.UUID `json:"id"`
	workflow.Session
	StepName string        `json:"step_name"`
	Ready    bool          `json:"ready"`
	Pending  []workflow.Op `json:"pending"`
}

// NewComparisonView reports the session after a new comparison and any
// cleanup warning that accompanied it.
type NewComparisonView struct {
	Session SessionView `json:"session"`
	Warning string      `json:"warning,omitempty"`
}

type sessionHandler struct {
	sessions      *Sessions
	catalog       *templates.Catalog
	logger        *slog.Logger
	maxUploadSize int64
}

func newSessionHandler(
	sessions *Sessions,
	catalog *templates.Catalog,
	logger *slog.Logger,
	maxUploadSize int64,
) *sessionHandler {
	return &sessionHandler{
		sessions:      sessions,
		catalog:       catalog,
		logger:        logger.With("handler", "sessions"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *sessionHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.create},
			{Method: "GET", Pattern: "/{id}", Handler: h.find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.delete},
			{Method: "POST", Pattern: "/{id}/upload", Handler: h.upload},
			{Method: "POST", Pattern: "/{id}/detect", Handler: h.detect},
			{Method: "PUT", Pattern: "/{id}/seal", Handler: h.selectSeal},
			{Method: "PUT", Pattern: "/{id}/template", Handler: h.selectTemplate},
			{Method: "POST", Pattern: "/{id}/compare", Handler: h.compare},
			{Method: "POST", Pattern: "/{id}/reset", Handler: h.reset},
			{Method: "POST", Pattern: "/{id}/new", Handler: h.newComparison},
			{Method: "GET", Pattern: "/{id}/report", Handler: h.report},
		},
	}
}

func view(id uuid.UUID, ctrl *workflow.Controller, s workflow.Session) SessionView {
	v := SessionView{
		ID:       id,
		Session:  s,
		StepName: s.Step.String(),
		Ready:    s.Ready(),
		Pending:  []workflow.Op{},
	}
	for _, op := range trackedOps {
		if ctrl.Pending(op) {
			v.Pending = append(v.Pending, op)
		}
	}
	return v
}

func (h *sessionHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *workflow.Controller, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrSessionNotFound)
		return uuid.Nil, nil, false
	}

	ctrl, err := h.sessions.Get(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return uuid.Nil, nil, false
	}

	return id, ctrl, true
}

// respond writes the session view on success and the mapped error otherwise.
func (h *sessionHandler) respond(w http.ResponseWriter, id uuid.UUID, ctrl *workflow.Controller, s workflow.Session, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view(id, ctrl, s))
}

func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ctrl, err := h.sessions.Create()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, view(id, ctrl, ctrl.Snapshot()))
}

func (h *sessionHandler) find(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view(id, ctrl, ctrl.Snapshot()))
}

func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	if err := h.sessions.Delete(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandler) upload(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", workflow.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	s, err := ctrl.Upload(r.Context(), header.Filename, file)
	h.respond(w, id, ctrl, s, err)
}

func (h *sessionHandler) detect(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	s, err := ctrl.DetectSeals(r.Context())
	h.respond(w, id, ctrl, s, err)
}

type selectSealRequest struct {
	ID *int `json:"id"`
}

func (h *sessionHandler) selectSeal(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req selectSealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	s, err := ctrl.SelectSeal(*req.ID)
	h.respond(w, id, ctrl, s, err)
}

type selectTemplateRequest struct {
	Name string `json:"name"`
}

func (h *sessionHandler) selectTemplate(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req selectTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	name := workflow.TemplateRef(req.Name)
	if name != "" && h.catalog != nil {
		known, err := h.catalog.Contains(r.Context(), name)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		if !known {
			err := fmt.Errorf("%w: unknown template %q", workflow.ErrInvalidInput, name)
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	s, err := ctrl.SelectTemplate(name)
	h.respond(w, id, ctrl, s, err)
}

func (h *sessionHandler) compare(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	s, err := ctrl.CompareSeals(r.Context())
	h.respond(w, id, ctrl, s, err)
}

func (h *sessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	s, err := ctrl.Reset()
	h.respond(w, id, ctrl, s, err)
}

// newComparison clears the session. When backend cleanup fails the
// request is refused unless force=true is given.
func (h *sessionHandler) newComparison(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	confirm := func(context.Context, error) bool { return force }

	s, warning, err := ctrl.NewComparison(r.Context(), confirm)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	out := NewComparisonView{Session: view(id, ctrl, s)}
	if warning != nil {
		out.Warning = warning.Error()
	}
	handlers.RespondJSON(w, http.StatusOK, out)
}

func (h *sessionHandler) report(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	doc, err := ctrl.Export(r.Context(), &buf)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Report-Pages", strconv.Itoa(doc.Pages))
	if doc.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", doc.ArchiveKey)
	}
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
