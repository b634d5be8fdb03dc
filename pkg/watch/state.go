// Package watch polls the content directory and reloads the catalog when lessons change.
package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tradecourse/course-content/pkg/utils"
)

const stateFileName = "watch_state.json"

// WatchState is the persisted record of the last content check and reload
type WatchState struct {
	Fingerprint       string    `json:"fingerprint,omitempty"`
	FileCount         int       `json:"file_count"`
	LastCheckTime     time.Time `json:"last_check_time,omitempty"`
	LastReloadTime    time.Time `json:"last_reload_time,omitempty"`
	LastReloadSuccess bool      `json:"last_reload_success"`
	DocumentCount     int       `json:"document_count"`
	Reloads           int64     `json:"reloads"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a state manager writing to <stateDir>/watch_state.json
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
	}
}

// Load reads the state from disk. A missing file leaves a zero state.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{}
			return nil
		}
		return fmt.Errorf("%w: failed to read state file: %w", utils.ErrFilesystem, err)
	}

	var loaded WatchState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: failed to parse state file as JSON: %w", utils.ErrParsing, err)
	}
	m.state = loaded
	return nil
}

// Save writes the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create state directory: %w", utils.ErrFilesystem, err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal state to JSON: %w", utils.ErrParsing, err)
	}

	// Write then rename so a crash never leaves a truncated state file
	tmp := m.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write state file: %w", utils.ErrFilesystem, err)
	}
	if err := os.Rename(tmp, m.statePath); err != nil {
		return fmt.Errorf("%w: failed to replace state file: %w", utils.ErrFilesystem, err)
	}
	return nil
}

// State returns a copy of the current state
func (m *StateManager) State() WatchState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// RecordCheck stores the fingerprint seen by a poll and reports whether it differs from the last one.
func (m *StateManager) RecordCheck(fingerprint string, fileCount int) (changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed = m.state.Fingerprint != fingerprint
	m.state.Fingerprint = fingerprint
	m.state.FileCount = fileCount
	m.state.LastCheckTime = time.Now()
	return changed
}

// RecordReload stores the outcome of a catalog reload
func (m *StateManager) RecordReload(documents int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastReloadTime = time.Now()
	m.state.Reloads++
	if err != nil {
		m.state.LastReloadSuccess = false
		m.state.ErrorMessage = err.Error()
		return
	}
	m.state.LastReloadSuccess = true
	m.state.DocumentCount = documents
	m.state.ErrorMessage = ""
}

// ForgetFingerprint clears the stored fingerprint so the next poll reloads.
func (m *StateManager) ForgetFingerprint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Fingerprint = ""
}
