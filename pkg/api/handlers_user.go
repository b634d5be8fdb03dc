package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/storage"
	"github.com/tradecourse/course-content/pkg/utils"
)

const maxBodyBytes = 64 * 1024

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", utils.ErrInvalidArgument, err)
	}
	return nil
}

// moduleProgress summarises completion of one module for a user.
type moduleProgress struct {
	Module    string `json:"module"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// handleListProgress returns the user's records plus per-module completion counts.
func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	entries, err := s.store.ListProgress(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary := make([]moduleProgress, 0)
	if snap, errSnap := s.content.Snapshot(); errSnap == nil {
		for _, m := range snap.Modules {
			completed, total := storage.ModuleCompletion(entries, m.Slug, m.LessonSlugs())
			summary = append(summary, moduleProgress{Module: m.Slug, Completed: completed, Total: total})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": entries, "modules": summary})
}

// handleGetProgress returns the status of one lesson for the user.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	status, entry, err := s.store.GetProgress(chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status.String(), "entry": entry})
}

type progressRequest struct {
	Status models.ProgressStatus `json:"status"`
}

// handlePutProgress sets the lesson's status; an empty body marks it completed.
func (s *Server) handlePutProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, moduleSlug, lessonSlug := chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson")

	var entry *models.ProgressEntry
	var err error
	switch req.Status {
	case models.ProgressStatusUnset, models.ProgressStatusCompleted:
		entry, err = s.store.MarkComplete(userID, moduleSlug, lessonSlug)
	case models.ProgressStatusStarted:
		entry, err = s.store.MarkStarted(userID, moduleSlug, lessonSlug)
	case models.ProgressStatusIncomplete:
		entry, err = s.store.MarkIncomplete(userID, moduleSlug, lessonSlug)
	default:
		err = fmt.Errorf("%w: unknown status %q", utils.ErrInvalidArgument, req.Status)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteProgress withdraws a completion.
func (s *Server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.MarkIncomplete(chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type noteRequest struct {
	Text string `json:"text"`
}

// handleListNotes lists the user's notes on a lesson, oldest first.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.ListNotes(r.Context(), chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// handleAddNote creates a note.
func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.store.AddNote(chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// handleUpdateNote replaces a note's text.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.store.UpdateNote(chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"),
		chi.URLParam(r, "noteID"), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// handleDeleteNote removes a note.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteNote(chi.URLParam(r, "user"), chi.URLParam(r, "module"), chi.URLParam(r, "lesson"), chi.URLParam(r, "noteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
