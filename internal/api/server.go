// Package api exposes the workspace to canvas clients over HTTP: pipeline
// and node mutations, connection proposals, file open/save, run submission,
// and an SSE event stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/flowdeck/internal/events"
	"github.com/mattjoyce/flowdeck/internal/plugin"
	"github.com/mattjoyce/flowdeck/internal/workspace"
)

// FilePicker selects which workspace file the next open call reads. The fs
// dialog satisfies it; a nil picker disables the open endpoint.
type FilePicker interface {
	Pick(name string) error
	List() ([]string, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
}

// Server is the workspace HTTP API server.
type Server struct {
	config    Config
	store     *workspace.Store
	catalog   *plugin.Catalog
	picker    FilePicker
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates an API server. picker and hub may be nil.
func New(config Config, store *workspace.Store, catalog *plugin.Catalog, picker FilePicker, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    config,
		store:     store,
		catalog:   catalog,
		picker:    picker,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // SSE clients hold the connection open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/workspace", s.handleWorkspace)

	r.Get("/catalog", s.handleCatalog)
	r.Post("/catalog/reload", s.handleCatalogReload)

	r.Route("/pipelines", func(r chi.Router) {
		r.Post("/", s.handleCreatePipeline)
		r.Post("/open", s.handleOpen)
		r.Get("/files", s.handleListFiles)
		r.Post("/{pipelineID}/activate", s.handleActivate)
		r.Delete("/{pipelineID}", s.handleRemovePipeline)

		r.Route("/active", func(r chi.Router) {
			r.Get("/", s.handleActivePipeline)
			r.Post("/rename", s.handleRename)
			r.Post("/schedule", s.handleSchedule)
			r.Post("/nodes", s.handleAddNode)
			r.Delete("/nodes/{nodeID}", s.handleRemoveNode)
			r.Post("/nodes/{nodeID}/position", s.handleNodePosition)
			r.Post("/nodes/{nodeID}/params", s.handleNodeParams)
			r.Post("/nodes/{nodeID}/select", s.handleNodeSelect)
			r.Post("/connect", s.handleConnect)
			r.Post("/run", s.handleRun)
			r.Post("/save", s.handleSave)
		})
	})

	r.Get("/events", s.handleEvents)

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
