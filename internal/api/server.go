// Package api serves the record store over HTTP as JSON.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/store"
)

const maxBodyBytes = 1 << 20

type Server struct {
	records store.Records
	apiKey  string
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Server)

// WithClock replaces time.Now, used by tests for /api/stats.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a server over records. A nil records makes every data route
// answer 503. An empty apiKey rejects all todo creation.
func New(records store.Records, apiKey string, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		records: records,
		apiKey:  apiKey,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/projects", s.withStore(s.listProjects))
	mux.HandleFunc("GET /api/projects/{id}", s.withStore(s.getProject))
	mux.HandleFunc("POST /api/projects", s.withStore(s.createProject))
	mux.HandleFunc("PATCH /api/projects", s.withStore(s.updateProject))

	mux.HandleFunc("GET /api/time-entries", s.withStore(s.listTimeEntries))
	mux.HandleFunc("GET /api/time-entries/{id}", s.withStore(s.getTimeEntry))
	mux.HandleFunc("POST /api/time-entries", s.withStore(s.createTimeEntry))
	mux.HandleFunc("PATCH /api/time-entries", s.withStore(s.updateTimeEntry))
	mux.HandleFunc("DELETE /api/time-entries", s.withStore(s.deleteTimeEntry))

	mux.HandleFunc("GET /api/todos", s.withStore(s.listTodos))
	mux.HandleFunc("POST /api/todos", s.withStore(s.requireKey(s.createTodo)))
	mux.HandleFunc("PATCH /api/todos", s.withStore(s.updateTodo))
	mux.HandleFunc("DELETE /api/todos", s.withStore(s.deleteTodo))

	mux.HandleFunc("GET /api/stats", s.withStore(s.stats))

	return s.logRequests(mux)
}

func (s *Server) withStore(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.records == nil {
			writeError(w, http.StatusServiceUnavailable, "record store not configured")
			return
		}
		h(w, r)
	}
}

func (s *Server) requireKey(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || s.apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		h(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= 500 {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// fail maps store and validation errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("store error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
