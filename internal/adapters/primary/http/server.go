package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout = 10 * time.Second
	// Batches run to completion inside the request.
	writeTimeout = 5 * time.Minute
	idleTimeout  = 120 * time.Second
)

// Server represents an HTTP server.
type Server struct {
	server *http.Server
	app    *app.App
	logger *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(addr string, appInstance *app.App, logger *zap.Logger) *Server {
	s := &Server{
		app:    appInstance,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSetProfile)

		r.Get("/projects", s.handleSearchProjects)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListProjectMembers)
			r.Post("/", s.handleAddMember)
			r.Delete("/", s.handleRemoveMember)
			r.Post("/batch-add", s.handleBatchAdd)
			r.Post("/batch-remove", s.handleBatchRemove)
			r.Post("/group-add", s.handleBatchAddGroup)
			r.Post("/import", s.handleImport)
		})

		r.Route("/local", func(r chi.Router) {
			r.Get("/members", s.handleListLocalMembers)
			r.Put("/members", s.handleUpsertLocalMembers)
			r.Post("/members/delete", s.handleDeleteLocalMembers)

			r.Get("/groups", s.handleListGroups)
			r.Post("/groups", s.handleCreateGroup)
			r.Route("/groups/{groupID}", func(r chi.Router) {
				r.Patch("/", s.handleRenameGroup)
				r.Delete("/", s.handleDeleteGroup)
				r.Get("/members", s.handleListGroupMembers)
				r.Post("/members", s.handleAddGroupMembers)
				r.Post("/members/delete", s.handleRemoveGroupMembers)
			})
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
