// Package api exposes the chat command channel, session lookups and the live
// match feed over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/adapters/http/swagger"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/logger"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the coordinator.
type Dependencies interface {
	// Handle runs one chat command.
	Handle(ctx context.Context, cmd service.Command) (service.Result, error)
	// Snapshot returns a copy of a live session.
	Snapshot(ctx context.Context, code string) (*session.View, error)
	StatsProvider
}

// FeedServer upgrades a request into a live match feed for one session.
type FeedServer interface {
	Serve(w http.ResponseWriter, r *http.Request, code string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	commandsHandler *CommandsHandler
	sessionsHandler *SessionsHandler
	log             logger.Logger
}

// NewServer creates a new API server with all handlers. feed may be nil, in
// which case the feed route answers 404.
func NewServer(deps Dependencies, feed FeedServer, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		commandsHandler: NewCommandsHandler(deps, log),
		sessionsHandler: NewSessionsHandler(deps, feed, log),
		log:             log,
	}
}

// Routes builds the router with every endpoint and the docs.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	r.Use(MetricsMiddleware)
	r.Use(s.recoverPanic)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/commands", s.commandsHandler.HandlePostCommand)
		r.Get("/sessions/{code}", s.sessionsHandler.HandleGetSession)
		r.Get("/sessions/{code}/feed", s.sessionsHandler.HandleFeed)
	})

	swagger.Register(ctx, r)
	return r
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				s.log.Error(r.Context(), "handler panicked",
					logger.String("path", r.URL.Path), logger.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
