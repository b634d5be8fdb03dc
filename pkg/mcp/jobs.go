package mcp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of an export job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsActive reports whether the job has not reached a terminal state
func (s JobStatus) IsActive() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// Job represents a background export of the course content
type Job struct {
	ID              string    `json:"id"`
	OutputDir       string    `json:"output_dir"`
	Status          JobStatus `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
	LessonsExported int       `json:"lessons_exported"`
	ChunksExported  int       `json:"chunks_exported"`
	FailedLessons   []string  `json:"failed_lessons,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

// JobManager tracks export jobs. At most one job runs per output directory.
type JobManager struct {
	jobs  map[string]*Job
	mu    sync.RWMutex
	bydir map[string]string // outputDir -> jobID for active jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:  make(map[string]*Job),
		bydir: make(map[string]string),
	}
}

// CreateJob registers a pending job for outputDir. If one is already active for
// that directory it is returned with created=false.
func (m *JobManager) CreateJob(outputDir string) (job *Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, ok := m.bydir[outputDir]; ok {
		if existing := m.jobs[existingID]; existing != nil && existing.Status.IsActive() {
			return existing.snapshot(), false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New().String(),
		OutputDir: outputDir,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.jobs[j.ID] = j
	m.bydir[outputDir] = j.ID
	return j.snapshot(), true
}

// snapshot copies the exported fields so callers never share state with the manager
func (j *Job) snapshot() *Job {
	c := *j
	c.FailedLessons = append([]string(nil), j.FailedLessons...)
	c.ctx, c.cancel = nil, nil
	return &c
}

// GetJob returns a copy of the job, or nil if unknown
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[jobID]; ok {
		return j.snapshot()
	}
	return nil
}

// IsRunning checks if an export is active for outputDir
func (m *JobManager) IsRunning(outputDir string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if jobID, ok := m.bydir[outputDir]; ok {
		j := m.jobs[jobID]
		return j != nil && j.Status.IsActive()
	}
	return false
}

// MarkRunning moves a pending job to running
func (m *JobManager) MarkRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok && j.Status == JobStatusPending {
		j.Status = JobStatusRunning
	}
}

// Finish records the outcome of a job. A job already cancelled stays cancelled.
func (m *JobManager) Finish(jobID string, lessons, chunks int, failed []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok || !j.Status.IsActive() {
		return
	}
	j.LessonsExported = lessons
	j.ChunksExported = chunks
	j.FailedLessons = append([]string(nil), failed...)
	j.CompletedAt = time.Now()
	switch {
	case err == nil:
		j.Status = JobStatusCompleted
	case errors.Is(err, context.Canceled):
		j.Status = JobStatusCancelled
	default:
		j.Status = JobStatusFailed
		j.ErrorMessage = err.Error()
	}
	j.cancel()
	delete(m.bydir, j.OutputDir)
}

// CancelJob cancels an active job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok || !j.Status.IsActive() {
		return false
	}
	j.cancel()
	j.Status = JobStatusCancelled
	j.CompletedAt = time.Now()
	delete(m.bydir, j.OutputDir)
	return true
}

// CancelAll cancels every active job
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if j.Status.IsActive() {
			j.cancel()
			j.Status = JobStatusCancelled
			j.CompletedAt = time.Now()
		}
	}
	m.bydir = make(map[string]string)
}

// ListJobs returns copies of all jobs
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j.snapshot())
	}
	return jobs
}

// Context returns the job's cancellation context
func (m *JobManager) Context(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if j, ok := m.jobs[jobID]; ok {
		return j.ctx
	}
	return context.Background()
}
