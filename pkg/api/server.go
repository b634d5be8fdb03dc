// Package api serves course content and per-user progress and notes over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/config"
	"github.com/tradecourse/course-content/pkg/storage"
)

// ContentSource hands out the current content snapshot.
type ContentSource interface {
	Snapshot() (*catalog.Snapshot, error)
}

// UserData is the slice of the store the API needs.
type UserData interface {
	storage.ProgressStore
	storage.NoteStore
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	content ContentSource
	store   UserData
	cfg     config.ServerConfig
	log     *logrus.Entry
}

// NewServer creates and configures the HTTP server.
func NewServer(content ContentSource, store UserData, cfg config.ServerConfig, log *logrus.Entry) *Server {
	s := &Server{
		content: content,
		store:   store,
		cfg:     cfg,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/modules", s.handleListModules)
		r.Get("/api/modules/{module}", s.handleGetModule)
		r.Get("/api/modules/{module}/lessons/{lesson}", s.handleGetLesson)
		r.Get("/api/modules/{module}/lessons/{lesson}/html", s.handleRenderLesson)

		r.Route("/api/users/{user}", func(r chi.Router) {
			r.Get("/progress", s.handleListProgress)
			r.Get("/progress/{module}/{lesson}", s.handleGetProgress)
			r.Put("/progress/{module}/{lesson}", s.handlePutProgress)
			r.Delete("/progress/{module}/{lesson}", s.handleDeleteProgress)

			r.Get("/notes/{module}/{lesson}", s.handleListNotes)
			r.Post("/notes/{module}/{lesson}", s.handleAddNote)
			r.Put("/notes/{module}/{lesson}/{noteID}", s.handleUpdateNote)
			r.Delete("/notes/{module}/{lesson}/{noteID}", s.handleDeleteNote)
		})
	})

	s.router = r
}

// ListenAndServe serves on cfg.Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP API listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.content.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"modules":   len(snap.Modules),
		"lessons":   len(snap.Repository.Documents()),
		"loaded_at": snap.LoadedAt,
	})
}
