package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/log"
	"github.com/tradecourse/course-content/pkg/utils"
)

const (
	progressKeyPrefix = "progress:" // progress:<user>/<module>/<lesson>
	noteKeyPrefix     = "note:"     // note:<user>/<module>/<lesson>/<id>
)

// BadgerStore implements the UserStore interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached record count for O(1) RecordCount
	now      func() time.Time
}

var _ UserStore = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) the store at <stateDir>/<storeName>.
// Existing records are kept across restarts.
func NewBadgerStore(stateDir, storeName string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, utils.SanitizeFilename(storeName))
	logger.Infof("Opening progress database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerLogrusAdapter(logger)).
		WithNumVersionsToKeep(1)
	return openStore(opts, logger)
}

// NewInMemoryStore opens a store that lives only for the lifetime of the process.
func NewInMemoryStore(logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(log.NewBadgerLogrusAdapter(logger))
	return openStore(opts, logger)
}

func openStore(opts badger.Options, logger *logrus.Entry) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %q: %w", utils.ErrDatabase, opts.Dir, err)
	}
	store := &BadgerStore{
		db:  db,
		log: logger,
		now: func() time.Time { return time.Now().UTC() },
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing records: %v", err)
	} else {
		store.keyCount.Store(int64(count))
		logger.Debugf("Loaded existing record count: %d", count)
	}
	return store, nil
}

// countKeys performs a one-time full key scan (used only when opening the store).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// keyFor joins escaped key segments under prefix so ids containing '/' cannot collide.
func keyFor(prefix string, segments ...string) []byte {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return []byte(prefix + strings.Join(escaped, "/"))
}

// requireArgs rejects empty identifiers.
func requireArgs(names []string, values ...string) error {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", utils.ErrInvalidArgument, names[i])
		}
	}
	return nil
}

var lessonArgNames = []string{"user id", "module", "lesson", "note id"}

// getJSON decodes the value at key into v. found is false when the key does not exist.
func getJSON(txn *badger.Txn, key []byte, v any) (found bool, err error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		if errJSON := json.Unmarshal(val, v); errJSON != nil {
			return fmt.Errorf("%w: decoding JSON for key '%s': %w", utils.ErrParsing, string(key), errJSON)
		}
		return nil
	})
}

// setJSON encodes v and writes it at key. created reports whether the key was new.
func setJSON(txn *badger.Txn, key []byte, v any) (created bool, err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("%w: encoding JSON for key '%s': %w", utils.ErrParsing, string(key), err)
	}
	_, errGet := txn.Get(key)
	switch {
	case errors.Is(errGet, badger.ErrKeyNotFound):
		created = true
	case errGet != nil:
		return false, errGet
	}
	return created, txn.SetEntry(badger.NewEntry(key, b))
}

// scanPrefix calls fn for each value under prefix in key order, honoring ctx cancellation.
func (s *BadgerStore) scanPrefix(ctx context.Context, prefix []byte, fn func(key, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := item.KeyCopy(nil)
			if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordCount implements the StoreAdmin interface.
// Returns the cached record count maintained by atomic updates on writes.
func (s *BadgerStore) RecordCount() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Info("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}
			s.runGCCycle()

		case <-ctx.Done():
			s.log.Infof("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// runGCCycle rewrites value log files until Badger reports nothing left to reclaim.
func (s *BadgerStore) runGCCycle() {
	var err error
	for {
		// Rewrite a value log file when at least half of it is reclaimable
		if err = s.db.RunValueLogGC(0.5); err != nil {
			break
		}
		s.log.Debug("BadgerDB GC rewrote a value log file.")
	}
	// In-memory stores have no value log and report ErrGCInMemoryMode
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		s.log.Debug("BadgerDB GC finished (no rewrite needed).")
		return
	}
	s.log.Errorf("BadgerDB GC error: %v", err)
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing progress DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing progress DB: %v", err)
			return fmt.Errorf("%w: closing: %w", utils.ErrDatabase, err)
		}
		return nil
	}
	s.log.Debug("Progress DB already closed or was not initialized.")
	return nil
}
