package api_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/sealcheck/internal/api"
	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/infrastructure"
	"github.com/JaimeStill/sealcheck/pkg/module"
)

type backendState struct {
	cleanupFails atomic.Bool
	compares     atomic.Int32
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for x := range 40 {
		img.Set(x, 20, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T, state *backendState) *httptest.Server {
	t.Helper()
	img := pngBytes(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message":  "File uploaded successfully",
			"filename": header.Filename,
			"filepath": "uploads/" + header.Filename,
		})
	})
	mux.HandleFunc("POST /api/detect", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"seals": []map[string]any{
				{"id": 1, "diameter": 41.5, "image_url": "/static/seals/seal_1.png", "x": 120, "y": 340, "radius": 62, "page": 1},
				{"id": 2, "diameter": 39.0, "image_url": "/static/seals/seal_2.png", "x": 400, "y": 610, "radius": 58},
			},
			"count": 2,
		})
	})
	mux.HandleFunc("GET /api/templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"templates": []string{"company_a.png", "company_b.png"}})
	})
	mux.HandleFunc("GET /api/template/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") == "missing.png" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Template not found"})
			return
		}
		w.Write(img)
	})
	mux.HandleFunc("POST /api/upload_template", func(w http.ResponseWriter, r *http.Request) {
		_, header, _ := r.FormFile("file")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "filename": header.Filename})
	})
	mux.HandleFunc("POST /api/compare", func(w http.ResponseWriter, r *http.Request) {
		state.compares.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{
			"result":   "## Verdict\nThe seals match.",
			"seal":     "static/seals/seal_1.png",
			"template": "company_a.png",
		})
	})
	mux.HandleFunc("POST /api/cleanup", func(w http.ResponseWriter, r *http.Request) {
		if state.cleanupFails.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "disk busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Cleanup completed"})
	})
	mux.HandleFunc("GET /static/seals/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T, configure func(*config.Config)) (*httptest.Server, *backendState) {
	t.Helper()

	state := &backendState{}
	be := newBackend(t, state)

	cfg := &config.Config{}
	cfg.Backend.URL = be.URL
	if configure != nil {
		configure(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	infra, err := infrastructure.NewWithLogger(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	m, err := api.NewModule(infra)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		infra.Lifecycle.Shutdown(time.Second)
	})
	return srv, state
}

func do(t *testing.T, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func doJSON(t *testing.T, method, url string, in any) *http.Response {
	t.Helper()
	var body io.Reader
	if in != nil {
		data, _ := json.Marshal(in)
		body = bytes.NewReader(data)
	}
	return do(t, method, url, body, "application/json")
}

func multipartFile(t *testing.T, name string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

type sessionBody struct {
	ID       string `json:"id"`
	Step     int    `json:"step"`
	StepName string `json:"step_name"`
	Ready    bool   `json:"ready"`
	Seals    []struct {
		ID int `json:"id"`
	} `json:"seals"`
	Result *struct {
		Report   string `json:"report"`
		Template string `json:"template"`
	} `json:"result"`
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expect(t *testing.T, res *http.Response, status int) {
	t.Helper()
	if res.StatusCode != status {
		data, _ := io.ReadAll(res.Body)
		t.Fatalf("%s %s: status %d, want %d: %s", res.Request.Method, res.Request.URL.Path, res.StatusCode, status, data)
	}
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res := do(t, "POST", srv.URL+"/api/sessions", nil, "")
	expect(t, res, http.StatusCreated)
	s := decode[sessionBody](t, res)
	if s.StepName != "upload" {
		t.Fatalf("new session step = %s, want upload", s.StepName)
	}
	return s.ID
}

func uploadAndDetect(t *testing.T, srv *httptest.Server, base string) {
	t.Helper()
	body, ct := multipartFile(t, "contract.pdf", []byte("%PDF-1.4\n%fake"))
	res := do(t, "POST", base+"/upload", body, ct)
	expect(t, res, http.StatusOK)
	if s := decode[sessionBody](t, res); s.StepName != "detect" {
		t.Fatalf("after upload step = %s, want detect", s.StepName)
	}

	res = do(t, "POST", base+"/detect", nil, "")
	expect(t, res, http.StatusOK)
	if s := decode[sessionBody](t, res); s.StepName != "select" || len(s.Seals) != 2 {
		t.Fatalf("after detect: %+v", s)
	}
}

func TestSessionWorkflow(t *testing.T) {
	srv, state := newServer(t, nil)
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	uploadAndDetect(t, srv, base)

	res := doJSON(t, "PUT", base+"/seal", map[string]int{"id": 1})
	expect(t, res, http.StatusOK)

	res = doJSON(t, "PUT", base+"/template", map[string]string{"name": "unknown.png"})
	expect(t, res, http.StatusBadRequest)

	res = doJSON(t, "PUT", base+"/template", map[string]string{"name": "company_a.png"})
	expect(t, res, http.StatusOK)
	if s := decode[sessionBody](t, res); !s.Ready {
		t.Fatal("session not ready after both selections")
	}

	res = do(t, "POST", base+"/compare", nil, "")
	expect(t, res, http.StatusOK)
	s := decode[sessionBody](t, res)
	if s.StepName != "result" || s.Result == nil || !strings.Contains(s.Result.Report, "match") {
		t.Fatalf("after compare: %+v", s)
	}
	if state.compares.Load() != 1 {
		t.Errorf("compare calls = %d, want 1", state.compares.Load())
	}

	res = do(t, "GET", base+"/report", nil, "")
	expect(t, res, http.StatusOK)
	if ct := res.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("report content-type = %s", ct)
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "seal-report_") {
		t.Errorf("report disposition = %s", cd)
	}
	pdf, _ := io.ReadAll(res.Body)
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("report body is not a PDF: %q", pdf[:min(len(pdf), 16)])
	}

	res = do(t, "POST", base+"/reset", nil, "")
	expect(t, res, http.StatusOK)
	if s := decode[sessionBody](t, res); s.StepName != "select" || s.Result != nil || s.Ready {
		t.Errorf("after reset: %+v", s)
	}

	res = do(t, "POST", base+"/new", nil, "")
	expect(t, res, http.StatusOK)
	out := decode[struct {
		Session sessionBody `json:"session"`
		Warning string      `json:"warning"`
	}](t, res)
	if out.Session.StepName != "upload" || out.Warning != "" {
		t.Errorf("after new: %+v", out)
	}
}

func TestSessionPreconditions(t *testing.T) {
	srv, _ := newServer(t, nil)
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"detect before upload", "POST", "/detect", nil, http.StatusConflict},
		{"compare before select", "POST", "/compare", nil, http.StatusConflict},
		{"reset at upload", "POST", "/reset", nil, http.StatusConflict},
		{"report without result", "GET", "/report", nil, http.StatusConflict},
		{"seal without id", "PUT", "/seal", map[string]string{}, http.StatusBadRequest},
		{"blank template", "PUT", "/template", map[string]string{"name": ""}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doJSON(t, tt.method, base+tt.path, tt.body)
			expect(t, res, tt.want)

			var body map[string]string
			json.NewDecoder(res.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	srv, _ := newServer(t, nil)
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	body, ct := multipartFile(t, "scan.png", []byte("not a pdf"))
	res := do(t, "POST", base+"/upload", body, ct)
	expect(t, res, http.StatusBadRequest)

	res = do(t, "POST", base+"/upload", strings.NewReader("{}"), "application/json")
	expect(t, res, http.StatusBadRequest)
}

func TestSelectUnknownSeal(t *testing.T) {
	srv, _ := newServer(t, nil)
	base := srv.URL + "/api/sessions/" + createSession(t, srv)
	uploadAndDetect(t, srv, base)

	res := doJSON(t, "PUT", base+"/seal", map[string]int{"id": 99})
	expect(t, res, http.StatusConflict)
}

func TestNewComparisonCleanupFailure(t *testing.T) {
	srv, state := newServer(t, nil)
	base := srv.URL + "/api/sessions/" + createSession(t, srv)
	uploadAndDetect(t, srv, base)

	state.cleanupFails.Store(true)

	res := do(t, "POST", base+"/new", nil, "")
	expect(t, res, http.StatusBadGateway)

	res = do(t, "GET", base, nil, "")
	expect(t, res, http.StatusOK)
	if s := decode[sessionBody](t, res); s.StepName != "select" {
		t.Errorf("declined new comparison changed step to %s", s.StepName)
	}

	res = do(t, "POST", base+"/new?force=true", nil, "")
	expect(t, res, http.StatusOK)
	out := decode[struct {
		Session sessionBody `json:"session"`
		Warning string      `json:"warning"`
	}](t, res)
	if out.Session.StepName != "upload" || !strings.Contains(out.Warning, "cleanup") {
		t.Errorf("forced new: %+v", out)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newServer(t, func(c *config.Config) { c.API.MaxSessions = 1 })

	id := createSession(t, srv)

	res := do(t, "POST", srv.URL+"/api/sessions", nil, "")
	expect(t, res, http.StatusServiceUnavailable)

	res = do(t, "DELETE", srv.URL+"/api/sessions/"+id, nil, "")
	expect(t, res, http.StatusNoContent)

	res = do(t, "GET", srv.URL+"/api/sessions/"+id, nil, "")
	expect(t, res, http.StatusNotFound)

	res = do(t, "GET", srv.URL+"/api/sessions/not-a-uuid", nil, "")
	expect(t, res, http.StatusNotFound)

	createSession(t, srv)
}

func TestTemplates(t *testing.T) {
	srv, _ := newServer(t, nil)

	res := do(t, "GET", srv.URL+"/api/templates?refresh=true", nil, "")
	expect(t, res, http.StatusOK)
	list := decode[struct {
		Templates []string `json:"templates"`
	}](t, res)
	if len(list.Templates) != 2 || list.Templates[0] != "company_a.png" {
		t.Errorf("templates = %v", list.Templates)
	}

	body, ct := multipartFile(t, "company_c.png", pngBytes(t))
	res = do(t, "POST", srv.URL+"/api/templates", body, ct)
	expect(t, res, http.StatusCreated)

	body, ct = multipartFile(t, "notes.txt", []byte("hello"))
	res = do(t, "POST", srv.URL+"/api/templates", body, ct)
	expect(t, res, http.StatusBadRequest)

	res = do(t, "GET", srv.URL+"/api/templates/company_a.png", nil, "")
	expect(t, res, http.StatusOK)
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("template image content-type = %s", ct)
	}

	res = do(t, "GET", srv.URL+"/api/templates/missing.png", nil, "")
	expect(t, res, http.StatusNotFound)
}

func TestOptionalRoutesAbsent(t *testing.T) {
	srv, _ := newServer(t, nil)

	for _, path := range []string{"/api/records", "/api/archive/reports/x.pdf"} {
		res := do(t, "GET", srv.URL+path, nil, "")
		expect(t, res, http.StatusNotFound)
	}
}
