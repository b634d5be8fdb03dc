// Package lesson assembles the per-page view of a lesson: metadata, raw body and table of contents.
package lesson

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/index"
	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/process"
)

// Loader answers lesson lookups against one content snapshot. It never mutates the snapshot
// and is safe for concurrent use.
type Loader struct {
	repo      content.Repository
	registry  *content.Registry
	modules   []models.Module
	extractor *process.HeadingExtractor
	log       *logrus.Entry
}

// NewLoader creates a Loader. modules must be the indexer output for repo.
func NewLoader(repo content.Repository, registry *content.Registry, modules []models.Module, log *logrus.Entry) *Loader {
	return &Loader{
		repo:      repo,
		registry:  registry,
		modules:   modules,
		extractor: process.NewHeadingExtractor(),
		log:       log,
	}
}

// LoadLessonContent returns the lesson's front matter, raw body and headings.
// An unknown (module, lesson) pair yields nil and no error. A body that cannot be parsed
// yields an error wrapping utils.ErrParsing.
func (l *Loader) LoadLessonContent(moduleSlug, lessonSlug string) (*models.LessonContent, error) {
	doc, ok := l.repo.Get(moduleSlug, lessonSlug)
	if !ok {
		l.log.Debugf("Lesson %s/%s not found", moduleSlug, lessonSlug)
		return nil, nil
	}

	headings, err := l.extractor.ExtractBody([]byte(doc.RawBody))
	if err != nil {
		l.log.WithError(err).Warnf("Failed to extract headings for %s", doc.Key())
		return nil, fmt.Errorf("lesson %s: %w", doc.Key(), err)
	}

	return &models.LessonContent{
		Module:      doc.ModuleSlug,
		Lesson:      doc.LessonSlug,
		FrontMatter: doc.FrontMatter,
		Content:     doc.RawBody,
		Headings:    headings,
	}, nil
}

// Component returns the renderable handle for a lesson. It does not parse headings.
func (l *Loader) Component(moduleSlug, lessonSlug string) (content.Renderable, bool) {
	return l.registry.Lookup(moduleSlug, lessonSlug)
}

// Navigation returns the previous and next lessons around a lesson in its module's display order.
// The second result is false when the lesson is not part of any module.
func (l *Loader) Navigation(moduleSlug, lessonSlug string) (models.Navigation, bool) {
	module, ok := index.FindModule(l.modules, moduleSlug)
	if !ok {
		return models.Navigation{}, false
	}
	for i, lesson := range module.Lessons {
		if lesson.Slug != lessonSlug {
			continue
		}
		nav := models.Navigation{Module: moduleSlug, Position: i + 1, Total: len(module.Lessons)}
		if i > 0 {
			prev := module.Lessons[i-1]
			nav.Previous = &models.NavLink{Slug: prev.Slug, Title: prev.Title}
		}
		if i+1 < len(module.Lessons) {
			next := module.Lessons[i+1]
			nav.Next = &models.NavLink{Slug: next.Slug, Title: next.Title}
		}
		return nav, true
	}
	return models.Navigation{}, false
}

// Modules returns the indexed modules of the snapshot.
func (l *Loader) Modules() []models.Module {
	return l.modules
}
