package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradecourse/course-content/pkg/index"
	"github.com/tradecourse/course-content/pkg/models"
)

// handleListModules lists every module with its ordered lessons.
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	snap, err := s.content.Snapshot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": snap.Modules})
}

// handleGetModule returns one module.
func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	snap, err := s.content.Snapshot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	module, ok := index.FindModule(snap.Modules, chi.URLParam(r, "module"))
	if !ok {
		jsonError(w, "module not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, module)
}

// lessonResponse is the lesson page payload.
type lessonResponse struct {
	Lesson     *models.LessonContent `json:"lesson"`
	Navigation *models.Navigation    `json:"navigation,omitempty"`
}

// handleGetLesson returns front matter, raw body, headings and navigation for a lesson.
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	snap, err := s.content.Snapshot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	moduleSlug, lessonSlug := chi.URLParam(r, "module"), chi.URLParam(r, "lesson")

	lc, err := snap.Loader.LoadLessonContent(moduleSlug, lessonSlug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if lc == nil {
		jsonError(w, "lesson not found", http.StatusNotFound)
		return
	}

	resp := lessonResponse{Lesson: lc}
	if nav, ok := snap.Loader.Navigation(moduleSlug, lessonSlug); ok {
		resp.Navigation = &nav
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRenderLesson writes the lesson body as an HTML fragment.
func (s *Server) handleRenderLesson(w http.ResponseWriter, r *http.Request) {
	snap, err := s.content.Snapshot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	comp, ok := snap.Loader.Component(chi.URLParam(r, "module"), chi.URLParam(r, "lesson"))
	if !ok {
		jsonError(w, "lesson not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := comp.Render(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
