package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/internal/logging"
	"github.com/microbialman/igaseq/ports"
)

// Server serves stored analysis runs and their rendered reports.
type Server struct {
	repo   ports.ResultRepository
	router chi.Router
}

// NewServer builds the report server over a result repository.
func NewServer(repo ports.ResultRepository) *Server {
	s := &Server{repo: repo}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/report", s.handleReport)
	s.router = r
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving on the given port.
func (s *Server) ListenAndServe(port string) error {
	logging.Info("report server listening", zap.String("port", port))
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil {
			limit = parsed
		}
	}
	runs, err := s.repo.ListRuns(r.Context(), limit)
	if err != nil {
		s.serverError(w, "listing runs", err)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	rn, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("run %s not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, rn)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	rn, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("run %s not found", id), http.StatusNotFound)
		return
	}
	rows, err := s.repo.GetResults(r.Context(), id)
	if err != nil {
		s.serverError(w, "loading results", err)
		return
	}

	md := RenderMarkdown(rn, rows)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	page := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	logging.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", zap.Error(err))
	}
}
