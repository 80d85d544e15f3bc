// Package api provides the HTTP surface of the concert survey service.
//
// It exposes RESTful endpoints for concerts, conversations, survey turns,
// and transcript export. The API integrates with the flow engine, store,
// and transcript modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/flow"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address for the HTTP server.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server hosts the HTTP API over the flow engine and store.
type Server struct {
	addr   string
	st     store.Store
	engine *flow.Engine
	router chi.Router
}

// NewServer creates an API server and registers its routes.
func NewServer(st store.Store, engine *flow.Engine, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{addr: cfg.Addr, st: st, engine: engine}
	s.router = s.buildRouter()
	slog.Debug("api.NewServer: server created", "addr", s.addr)
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/concerts", func(r chi.Router) {
			r.Get("/", s.listConcertsHandler)
			r.Post("/", s.createConcertHandler)
			r.Get("/{concertID}", s.getConcertHandler)
			r.Get("/{concertID}/conversations", s.listConcertConversationsHandler)
		})
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.createConversationHandler)
			r.Get("/{conversationID}", s.getConversationHandler)
			r.Post("/{conversationID}/messages", s.turnHandler)
			r.Patch("/{conversationID}/complete", s.completeConversationHandler)
			r.Get("/{conversationID}/export", s.exportHandler)
		})
	})
	return r
}

// Handler returns the server's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("Server.Run: shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server.Run: graceful shutdown failed", "error", err)
		return err
	}
	slog.Info("Server.Run: server stopped")
	return nil
}
