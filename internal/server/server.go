// Package server exposes the ingest pipeline over HTTP for the browser
// extension.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Version is reported by /health.
const Version = "0.1.0"

// maxBodyBytes caps an ingest body; extension captures of large pages run to
// a few megabytes.
const maxBodyBytes = 32 << 20

const defaultHistoryLimit = 20

// Runner runs one ingest. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req models.IngestRequest) (*pipeline.Outcome, error)
}

// History serves recent ingests. *db.DB satisfies it.
type History interface {
	ListIngests(limit int) ([]db.IngestRecord, error)
}

type Server struct {
	runner  Runner
	history History
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// New returns a Server. history may be nil, in which case /history answers
// 404.
func New(runner Runner, history History, logger *slog.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, history: history, logger: logger, timeout: timeout, now: time.Now}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", s.handleHealth)
	r.Post("/ingest", s.handleIngest)
	if s.history != nil {
		r.Get("/history", s.handleHistory)
	}
	return r
}

// cors allows any origin; the extension posts from its own origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   Version,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	log := s.logger.With("request_id", id)

	var req models.IngestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		log.Warn("invalid ingest body", "error", err)
		writeError(w, http.StatusBadRequest, models.ErrInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}

	ctx := pipeline.WithRequestID(r.Context(), id)
	out, err := s.runner.Run(ctx, req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		log.Warn("invalid ingest request", "error", err)
		writeError(w, http.StatusBadRequest, models.ErrInvalidRequest, err.Error())
		return
	case err != nil:
		log.Error("ingest failed", "error", err)
		writeError(w, http.StatusInternalServerError, models.ErrInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.IngestResponse{
		OK:          true,
		Chosen:      out.Chosen,
		Title:       out.Title,
		URL:         out.URL,
		Markdown:    out.Markdown,
		Diagnostics: pipeline.Diagnostics(out),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, models.ErrInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.history.ListIngests(limit)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, models.ErrInternal, "failed to list history")
		return
	}
	if recs == nil {
		recs = []db.IngestRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code models.ErrorCode, msg string) {
	writeJSON(w, status, models.ErrorResponse{OK: false, Code: code, Message: msg})
}
