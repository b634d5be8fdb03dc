package storage

import (
	"context"
	"time"

	"github.com/tradecourse/course-content/pkg/models"
)

// ProgressStore handles per-user lesson completion state.
// Records reference lessons only by (module, lesson) string pair; they are not checked
// against the content tree.
type ProgressStore interface {
	// MarkStarted records that the user opened a lesson. An existing completed record is left as-is.
	MarkStarted(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error)

	// MarkComplete upserts the record with status completed and stamps CompletedAt.
	MarkComplete(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error)

	// MarkIncomplete upserts the record with status incomplete and clears CompletedAt.
	MarkIncomplete(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error)

	// GetProgress returns the status and entry for one lesson.
	// A missing record yields ProgressStatusNotFound with a nil entry and nil error.
	GetProgress(userID, moduleSlug, lessonSlug string) (models.ProgressStatus, *models.ProgressEntry, error)

	// ListProgress returns every record for the user, ordered by module then lesson.
	ListProgress(ctx context.Context, userID string) ([]models.ProgressEntry, error)
}

// NoteStore handles per-user notes attached to lessons.
type NoteStore interface {
	// AddNote stores a new note with a generated id.
	AddNote(userID, moduleSlug, lessonSlug, text string) (*models.Note, error)

	// UpdateNote replaces the text of an existing note. Returns utils.ErrNotFound if absent.
	UpdateNote(userID, moduleSlug, lessonSlug, noteID, text string) (*models.Note, error)

	// DeleteNote removes a note. Returns utils.ErrNotFound if absent.
	DeleteNote(userID, moduleSlug, lessonSlug, noteID string) error

	// ListNotes returns the user's notes for a lesson, oldest first.
	ListNotes(ctx context.Context, userID, moduleSlug, lessonSlug string) ([]models.Note, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// RecordCount returns an approximate count of all records in the store
	RecordCount() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// UserStore combines all store interfaces for components that need full access
type UserStore interface {
	ProgressStore
	NoteStore
	StoreAdmin
}
