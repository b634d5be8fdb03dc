package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrParsing           = errors.New("parsing error")                  // Wraps specific parsing error (markdown body, YAML, JSON)
	ErrFrontMatter       = errors.New("front matter error")             // Malformed front-matter block
	ErrDuplicateDocument = errors.New("duplicate document")             // Two files resolve to the same module/lesson pair
	ErrFilesystem        = errors.New("filesystem error")               // Wraps os errors
	ErrDatabase          = errors.New("database error")                 // Wraps badger errors
	ErrConfigValidation  = errors.New("configuration validation error") // Invalid config values
	ErrInvalidArgument   = errors.New("invalid argument")               // Caller supplied an unusable value
	ErrNotFound          = errors.New("not found")                      // Requested user-state record is absent
)

// WrapErrorf prefixes err with a formatted context message. Returns nil if err is nil.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging and API payloads.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrFrontMatter):
		return "Content_FrontMatter"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		if strings.Contains(errMsg, "UTF-8") {
			return "Content_Encoding"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrDuplicateDocument):
		return "Content_Duplicate"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrInvalidArgument):
		return "Request_InvalidArgument"
	case errors.Is(err, ErrNotFound):
		return "Request_NotFound"
	}

	// --- Fallback checks for common underlying error types ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}
