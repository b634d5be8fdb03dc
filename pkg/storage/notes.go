package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

// MaxNoteLength bounds the text of a single note, in bytes.
const MaxNoteLength = 16 * 1024

func noteKey(userID, moduleSlug, lessonSlug, noteID string) []byte {
	return keyFor(noteKeyPrefix, userID, moduleSlug, lessonSlug, noteID)
}

func validateNoteText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: note text is empty", utils.ErrInvalidArgument)
	}
	if len(text) > MaxNoteLength {
		return "", fmt.Errorf("%w: note text exceeds %d bytes", utils.ErrInvalidArgument, MaxNoteLength)
	}
	return text, nil
}

// AddNote implements the NoteStore interface
func (s *BadgerStore) AddNote(userID, moduleSlug, lessonSlug, text string) (*models.Note, error) {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug); err != nil {
		return nil, err
	}
	text, err := validateNoteText(text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	note := models.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Module:    moduleSlug,
		Lesson:    lessonSlug,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	key := noteKey(userID, moduleSlug, lessonSlug, note.ID)

	err = s.dbUpdate(func(txn *badger.Txn) error {
		_, errSet := setJSON(txn, key, &note)
		return errSet
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in AddNote: %v", err)
		return nil, fmt.Errorf("%w: adding note '%s': %w", utils.ErrDatabase, string(key), err)
	}
	s.keyCount.Add(1)
	return &note, nil
}

// UpdateNote implements the NoteStore interface
func (s *BadgerStore) UpdateNote(userID, moduleSlug, lessonSlug, noteID, text string) (*models.Note, error) {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug, noteID); err != nil {
		return nil, err
	}
	text, err := validateNoteText(text)
	if err != nil {
		return nil, err
	}
	key := noteKey(userID, moduleSlug, lessonSlug, noteID)

	var note models.Note
	err = s.dbUpdate(func(txn *badger.Txn) error {
		found, errGet := getJSON(txn, key, &note)
		if errGet != nil {
			return errGet
		}
		if !found {
			return fmt.Errorf("%w: note %s", utils.ErrNotFound, noteID)
		}
		note.Text = text
		note.UpdatedAt = s.now()
		_, errSet := setJSON(txn, key, &note)
		return errSet
	})
	if err != nil {
		return nil, s.wrapNoteErr("updating", key, err)
	}
	return &note, nil
}

// DeleteNote implements the NoteStore interface
func (s *BadgerStore) DeleteNote(userID, moduleSlug, lessonSlug, noteID string) error {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug, noteID); err != nil {
		return err
	}
	key := noteKey(userID, moduleSlug, lessonSlug, noteID)

	err := s.dbUpdate(func(txn *badger.Txn) error {
		if _, errGet := txn.Get(key); errGet != nil {
			if errors.Is(errGet, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: note %s", utils.ErrNotFound, noteID)
			}
			return errGet
		}
		return txn.Delete(key)
	})
	if err != nil {
		return s.wrapNoteErr("deleting", key, err)
	}
	s.keyCount.Add(-1)
	return nil
}

// wrapNoteErr passes request errors through and tags everything else as a database error.
func (s *BadgerStore) wrapNoteErr(action string, key []byte, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		return err
	}
	s.log.WithField("key", string(key)).Errorf("DB Update error %s note: %v", action, err)
	return fmt.Errorf("%w: %s note '%s': %w", utils.ErrDatabase, action, string(key), err)
}

// ListNotes implements the NoteStore interface
func (s *BadgerStore) ListNotes(ctx context.Context, userID, moduleSlug, lessonSlug string) ([]models.Note, error) {
	if err := requireArgs(lessonArgNames, userID, moduleSlug, lessonSlug); err != nil {
		return nil, err
	}
	prefix := append(keyFor(noteKeyPrefix, userID, moduleSlug, lessonSlug), '/')

	notes := make([]models.Note, 0)
	err := s.scanPrefix(ctx, prefix, func(key, val []byte) error {
		var note models.Note
		if errJSON := json.Unmarshal(val, &note); errJSON != nil {
			s.log.Warnf("Skipping undecodable note '%s': %v", string(key), errJSON)
			return nil
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing notes: %w", utils.ErrDatabase, err)
	}

	slices.SortStableFunc(notes, func(a, b models.Note) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return notes, nil
}
