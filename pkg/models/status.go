package models

// ProgressStatus represents a user's completion state for a lesson
type ProgressStatus string

const (
	ProgressStatusUnset      ProgressStatus = ""           // Zero value = unset/unknown
	ProgressStatusStarted    ProgressStatus = "started"    // Lesson opened but not completed
	ProgressStatusCompleted  ProgressStatus = "completed"  // Lesson marked complete
	ProgressStatusIncomplete ProgressStatus = "incomplete" // Completion explicitly withdrawn
	ProgressStatusNotFound   ProgressStatus = "not_found"  // No record in database
	ProgressStatusDBError    ProgressStatus = "db_error"   // Database error occurred
)

// String implements fmt.Stringer for logging
func (s ProgressStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusStarted, ProgressStatusCompleted, ProgressStatusIncomplete:
		return true
	}
	return false
}

// IsComplete reports whether the status counts towards module completion
func (s ProgressStatus) IsComplete() bool {
	return s == ProgressStatusCompleted
}
