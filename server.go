package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const version = "1.0.0"

// QueryRunner is the pipeline surface the transport layers depend on.
type QueryRunner interface {
	Run(ctx context.Context, source string, questions []string) ([]string, *RunMetrics, error)
	RunUpload(ctx context.Context, content []byte, filename, question string) (answer, evaluation string, err error)
}

// Server exposes the query pipeline over HTTP.
type Server struct {
	log     *slog.Logger
	runner  QueryRunner
	token   string
	missing func() []string
	started time.Time
}

func NewServer(log *slog.Logger, runner QueryRunner, token string, missing func() []string) *Server {
	return &Server{
		log:     log,
		runner:  runner,
		token:   token,
		missing: missing,
		started: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/run", s.withAuth(s.handleRun))
	mux.HandleFunc("POST /query", s.handleQuery)
	return mux
}

type runRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type runResponse struct {
	Answers []string `json:"answers"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err))
		return
	}
	if req.Documents == "" {
		writeError(w, http.StatusBadRequest, "documents is required")
		return
	}

	answers, _, err := s.runner.Run(r.Context(), req.Documents, req.Questions)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to download document: %s", err))
			return
		}
		s.log.Error("run failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal server error: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Answers: answers})
}

type queryResponse struct {
	Answer                string  `json:"answer"`
	Evaluation            string  `json:"evaluation"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// handleQuery is the legacy upload endpoint: one document, one question,
// answer plus advisory classification.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %s", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %s", err))
		return
	}

	start := time.Now()
	answer, evaluation, err := s.runner.RunUpload(r.Context(), content, header.Filename, r.FormValue("query"))
	if err != nil {
		s.log.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:                answer,
		Evaluation:            evaluation,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
	})
}

// handleHealth reports whether required remote-service credentials are
// configured. It never contacts the remote services.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	missing := s.missing()
	if len(missing) > 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "unhealthy",
			"message":   fmt.Sprintf("missing configuration: %s", strings.Join(missing, ", ")),
			"timestamp": time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"message":   "all systems operational",
		"timestamp": time.Now().Unix(),
		"version":   version,
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "docquery",
		"status":  "running",
		"version": version,
		"uptime":  time.Since(s.started).String(),
	})
}

// withAuth requires an exact bearer-token match before any pipeline phase
// runs.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
