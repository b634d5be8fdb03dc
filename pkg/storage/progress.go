package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

func progressKey(userID, moduleSlug, lessonSlug string) []byte {
	return keyFor(progressKeyPrefix, userID, moduleSlug, lessonSlug)
}

// upsertProgress applies mutate to the current record (or a fresh one) in a single transaction.
func (s *BadgerStore) upsertProgress(userID, moduleSlug, lessonSlug string, mutate func(entry *models.ProgressEntry, now time.Time)) (*models.ProgressEntry, error) {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug); err != nil {
		return nil, err
	}
	key := progressKey(userID, moduleSlug, lessonSlug)

	var result models.ProgressEntry
	created := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		entry := models.ProgressEntry{UserID: userID, Module: moduleSlug, Lesson: lessonSlug}
		if _, err := getJSON(txn, key, &entry); err != nil {
			return err
		}
		mutate(&entry, s.now())

		var err error
		created, err = setJSON(txn, key, &entry)
		result = entry
		return err
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in upsertProgress: %v", err)
		return nil, fmt.Errorf("%w: updating progress '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if created {
		s.keyCount.Add(1)
	}
	s.log.Debugf("Progress for '%s' is now '%s'", string(key), result.Status)
	return &result, nil
}

// MarkStarted implements the ProgressStore interface
func (s *BadgerStore) MarkStarted(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error) {
	return s.upsertProgress(userID, moduleSlug, lessonSlug, func(entry *models.ProgressEntry, now time.Time) {
		if !entry.Status.IsComplete() {
			entry.Status = models.ProgressStatusStarted
		}
		entry.UpdatedAt = now
	})
}

// MarkComplete implements the ProgressStore interface
func (s *BadgerStore) MarkComplete(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error) {
	return s.upsertProgress(userID, moduleSlug, lessonSlug, func(entry *models.ProgressEntry, now time.Time) {
		if !entry.Status.IsComplete() {
			entry.CompletedAt = now
		}
		entry.Status = models.ProgressStatusCompleted
		entry.UpdatedAt = now
	})
}

// MarkIncomplete implements the ProgressStore interface
func (s *BadgerStore) MarkIncomplete(userID, moduleSlug, lessonSlug string) (*models.ProgressEntry, error) {
	return s.upsertProgress(userID, moduleSlug, lessonSlug, func(entry *models.ProgressEntry, now time.Time) {
		entry.Status = models.ProgressStatusIncomplete
		entry.CompletedAt = time.Time{}
		entry.UpdatedAt = now
	})
}

// GetProgress implements the ProgressStore interface
func (s *BadgerStore) GetProgress(userID, moduleSlug, lessonSlug string) (models.ProgressStatus, *models.ProgressEntry, error) {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug); err != nil {
		return models.ProgressStatusUnset, nil, err
	}
	key := progressKey(userID, moduleSlug, lessonSlug)

	var entry models.ProgressEntry
	var found bool
	errView := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, key, &entry)
		return err
	})
	if errView != nil {
		s.log.Errorf("DB View error in GetProgress for key '%s': %v", string(key), errView)
		return models.ProgressStatusDBError, nil, fmt.Errorf("%w: reading progress '%s': %w", utils.ErrDatabase, string(key), errView)
	}
	if !found {
		return models.ProgressStatusNotFound, nil, nil
	}
	return entry.Status, &entry, nil
}

// ListProgress implements the ProgressStore interface
func (s *BadgerStore) ListProgress(ctx context.Context, userID string) ([]models.ProgressEntry, error) {
	if err := requireArgs(lessonArgNames, userID); err != nil {
		return nil, err
	}
	prefix := append(keyFor(progressKeyPrefix, userID), '/')

	entries := make([]models.ProgressEntry, 0)
	scanErrors := 0
	err := s.scanPrefix(ctx, prefix, func(key, val []byte) error {
		var entry models.ProgressEntry
		if errJSON := json.Unmarshal(val, &entry); errJSON != nil {
			s.log.Warnf("Skipping undecodable progress record '%s': %v", string(key), errJSON)
			scanErrors++
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing progress for user '%s': %w", utils.ErrDatabase, userID, err)
	}
	if scanErrors > 0 {
		s.log.Warnf("ListProgress for '%s' skipped %d records", userID, scanErrors)
	}
	return entries, nil
}

// ModuleCompletion counts how many of lessonSlugs the user has completed.
func ModuleCompletion(entries []models.ProgressEntry, moduleSlug string, lessonSlugs []string) (completed, total int) {
	done := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Module == moduleSlug && e.Status.IsComplete() {
			done[e.Lesson] = true
		}
	}
	for _, slug := range lessonSlugs {
		if done[slug] {
			completed++
		}
	}
	return completed, len(lessonSlugs)
}
