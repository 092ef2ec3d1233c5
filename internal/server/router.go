package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spacesedan/reviewsentiment/config"
	"github.com/spacesedan/reviewsentiment/internal/models"
	"github.com/spacesedan/reviewsentiment/internal/pipeline"
	"github.com/spacesedan/reviewsentiment/internal/spreadsheet"
)

const (
	REPORT_CONTENT_TYPE = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CHART_CONTENT_TYPE  = "image/png"
)

// Router serves the web form, the JSON API and the generated files.
type Router struct {
	cfg          config.Config
	orchestrator *pipeline.Orchestrator
	healthy      *atomic.Bool
}

// NewRouter wires the handlers. healthy is flipped by the classifier monitor;
// a nil value means the backend is always considered up.
func NewRouter(cfg config.Config, orchestrator *pipeline.Orchestrator, healthy *atomic.Bool) *Router {
	if healthy == nil {
		healthy = &atomic.Bool{}
		healthy.Store(true)
	}
	return &Router{cfg: cfg, orchestrator: orchestrator, healthy: healthy}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", r.index)
	mux.HandleFunc("POST /analyze", r.analyzeForm)
	mux.HandleFunc("POST /api/analyze", r.analyzeJSON)
	mux.HandleFunc("GET /report.xlsx", r.serveFile(r.cfg.ReportPath, REPORT_CONTENT_TYPE))
	mux.HandleFunc("GET /chart.png", r.serveFile(r.cfg.ChartPath, CHART_CONTENT_TYPE))
	mux.HandleFunc("GET /healthz", r.health)
}

type pageData struct {
	Text    string
	Error   string
	Outcome *pipeline.Outcome
}

func (r *Router) index(w http.ResponseWriter, req *http.Request) {
	renderPage(w, http.StatusOK, pageData{})
}

func (r *Router) analyzeForm(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	if err := req.ParseMultipartForm(r.cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		renderPage(w, uploadErrorStatus(err), pageData{Error: fmt.Sprintf("Could not read the form: %v", err)})
		return
	}

	in := pipeline.Input{Text: req.FormValue("text")}

	file, header, err := req.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in.File = &pipeline.Upload{Name: header.Filename, Reader: file}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		renderPage(w, http.StatusBadRequest, pageData{Text: in.Text, Error: fmt.Sprintf("Could not read the upload: %v", err)})
		return
	}

	// A batch that started runs to completion even if the client goes away.
	outcome, err := r.orchestrator.Process(context.WithoutCancel(req.Context()), in)
	if err != nil {
		slog.Error("[Server] Form analysis failed", slog.String("error", err.Error()))
		renderPage(w, processErrorStatus(err), pageData{Text: in.Text, Error: err.Error()})
		return
	}

	renderPage(w, http.StatusOK, pageData{Text: in.Text, Outcome: outcome})
}

type AnalyzeResponse struct {
	ReportID     string                       `json:"report_id,omitempty"`
	Results      models.ReportTable           `json:"results"`
	Distribution []models.LabelCount          `json:"distribution,omitempty"`
	Counts       models.SentimentDistribution `json:"counts,omitempty"`
	ReportURL    string                       `json:"report_url,omitempty"`
	ChartURL     string                       `json:"chart_url,omitempty"`
}

func (r *Router) analyzeJSON(w http.ResponseWriter, req *http.Request) {
	var body models.AnalyzeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		http.Error(w, err.Error(), uploadErrorStatus(err))
		return
	}

	outcome, err := r.orchestrator.Process(context.WithoutCancel(req.Context()), pipeline.InputFromRequest(body))
	if err != nil {
		slog.Error("[Server] API analysis failed", slog.String("error", err.Error()))
		http.Error(w, err.Error(), processErrorStatus(err))
		return
	}

	resp := AnalyzeResponse{
		ReportID:     outcome.ReportID,
		Results:      outcome.Report,
		Distribution: outcome.Chart,
		Counts:       outcome.Distribution,
	}
	if outcome.ReportPath != "" {
		resp.ReportURL = "/report.xlsx"
	}
	if outcome.ChartPath != "" {
		resp.ChartURL = "/chart.png"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (r *Router) serveFile(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if path == "" {
			http.NotFound(w, req)
			return
		}
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		if contentType == REPORT_CONTENT_TYPE {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
		}
		http.ServeFile(w, req, path)
	}
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if !r.healthy.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func processErrorStatus(err error) int {
	switch {
	case errors.Is(err, spreadsheet.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pipeline.ErrReadInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func uploadErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("[Server] Failed to render page", slog.String("error", err.Error()))
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("[Server] Failed to encode response", slog.String("error", err.Error()))
	}
}
