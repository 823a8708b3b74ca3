// Package server exposes the chat engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mdelehaye/cvchat/internal/chat"
	"github.com/mdelehaye/cvchat/internal/config"
	"github.com/mdelehaye/cvchat/internal/session"
	"github.com/mdelehaye/cvchat/pkg/provider"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end for the CV chat API.
type Server struct {
	cfg      *config.Config
	engine   *chat.Engine
	sessions session.Store
	llm      provider.LLMProvider

	router *mux.Router
	http   *http.Server
}

// Config contains server dependencies.
type Config struct {
	Config   *config.Config
	Engine   *chat.Engine
	Sessions session.Store
	LLM      provider.LLMProvider
}

// New creates a new server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg.Config,
		engine:   cfg.Engine,
		sessions: cfg.Sessions,
		llm:      cfg.LLM,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(logMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/docs", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/sample-questions", s.handleSampleQuestions).Methods(http.MethodGet)
	s.router.HandleFunc("/reset-session", s.handleResetSession).Methods(http.MethodPost)
	s.router.HandleFunc("/active-sessions", s.handleActiveSessions).Methods(http.MethodGet)
}

// Handler returns the full middleware chain, including CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// logMiddleware logs each request with method, path and duration.
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
