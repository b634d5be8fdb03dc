package watch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Source is the content the scheduler watches.
type Source interface {
	// Fingerprint summarises the content on disk without loading it.
	Fingerprint(ctx context.Context) (fingerprint string, files int, err error)
	// Reload rebuilds the served content and returns the number of documents loaded.
	Reload(ctx context.Context) (documents int, err error)
}

// Scheduler polls a Source and reloads it whenever its fingerprint changes
type Scheduler struct {
	source       Source
	interval     time.Duration
	log          *logrus.Entry
	stateManager *StateManager
}

// NewScheduler creates a scheduler that persists its state under stateDir
func NewScheduler(source Source, stateDir string, interval time.Duration, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		source:       source,
		interval:     interval,
		log:          log,
		stateManager: NewStateManager(stateDir),
	}
}

// Run polls until ctx is canceled. The content is assumed to be freshly loaded when Run
// starts, so the first poll only records a baseline fingerprint.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Watching content every %s", FormatInterval(s.interval))
	if fp, files, err := s.source.Fingerprint(ctx); err != nil {
		s.log.Warnf("Initial content scan failed: %v", err)
	} else {
		s.stateManager.RecordCheck(fp, files)
		s.save()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			return nil
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll checks the content once and reloads it if it changed. It reports whether a reload ran.
func (s *Scheduler) Poll(ctx context.Context) bool {
	fp, files, err := s.source.Fingerprint(ctx)
	if err != nil {
		s.log.Errorf("Content scan failed: %v", err)
		return false
	}
	if !s.stateManager.RecordCheck(fp, files) {
		return false
	}

	s.log.Infof("Content changed (%d lesson files), reloading", files)
	docs, err := s.source.Reload(ctx)
	s.stateManager.RecordReload(docs, err)
	if err != nil {
		// Retry on the next tick even if the files stay the same
		s.stateManager.ForgetFingerprint()
		s.log.Errorf("Content reload failed, keeping previous content: %v", err)
	} else {
		s.log.Infof("Content reloaded: %d lessons", docs)
	}
	s.save()
	return true
}

// Status returns the persisted watch state
func (s *Scheduler) Status() WatchState {
	return s.stateManager.State()
}

func (s *Scheduler) save() {
	if err := s.stateManager.Save(); err != nil {
		s.log.Errorf("Failed to save watch state: %v", err)
	}
}
