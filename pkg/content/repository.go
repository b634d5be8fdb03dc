package content

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

// Repository is a read-only, keyed view of the loaded content tree.
type Repository interface {
	// Get returns the document for the exact (module, lesson) pair.
	Get(moduleSlug, lessonSlug string) (models.Document, bool)
	// Documents returns every document in encounter order.
	Documents() []models.Document
	// Fingerprint identifies the snapshot's content; equal content gives equal fingerprints.
	Fingerprint() string
}

// MemoryRepository is a Repository held entirely in memory.
type MemoryRepository struct {
	docs        []models.Document
	byKey       map[models.LessonKey]int
	fingerprint string
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository indexes docs by (module, lesson).
// Two documents with the same pair (e.g. intro.md and intro.mdx) are rejected.
func NewMemoryRepository(docs []models.Document) (*MemoryRepository, error) {
	repo := &MemoryRepository{
		docs:  slices.Clone(docs),
		byKey: make(map[models.LessonKey]int, len(docs)),
	}

	parts := make([]string, 0, len(docs)*4)
	for i, doc := range repo.docs {
		key := doc.Key()
		if prev, exists := repo.byKey[key]; exists {
			return nil, fmt.Errorf("%w: %s defined by both %q and %q",
				utils.ErrDuplicateDocument, key, repo.docs[prev].SourcePath, doc.SourcePath)
		}
		repo.byKey[key] = i

		order := ""
		if doc.FrontMatter.HasOrder() {
			order = strconv.FormatFloat(*doc.FrontMatter.Order, 'g', -1, 64)
		}
		parts = append(parts, key.String(), doc.FrontMatter.Title+"\x00"+order+"\x00"+doc.FrontMatter.Parent, doc.RawBody, doc.SourcePath)
	}
	repo.fingerprint = utils.CalculateFingerprint(parts...)
	return repo, nil
}

// Get implements Repository
func (r *MemoryRepository) Get(moduleSlug, lessonSlug string) (models.Document, bool) {
	i, ok := r.byKey[models.LessonKey{Module: moduleSlug, Lesson: lessonSlug}]
	if !ok {
		return models.Document{}, false
	}
	return r.docs[i], true
}

// Documents implements Repository. The returned slice is a copy.
func (r *MemoryRepository) Documents() []models.Document {
	return slices.Clone(r.docs)
}

// Fingerprint implements Repository
func (r *MemoryRepository) Fingerprint() string {
	return r.fingerprint
}

// Len returns the number of documents.
func (r *MemoryRepository) Len() int {
	return len(r.docs)
}
