package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tradecourse/course-content/pkg/catalog"
	"github.com/tradecourse/course-content/pkg/utils"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// errorStatus maps an error to its HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, utils.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrParsing), errors.Is(err, utils.ErrFrontMatter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its category. Server-side failures are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).Errorf("Request failed: %v", err)
	}
	writeJSON(w, code, map[string]string{
		"error":    err.Error(),
		"category": utils.CategorizeError(err),
	})
}
