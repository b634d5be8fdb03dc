// Package content reads lesson files from disk and serves them as an immutable, keyed snapshot.
package content

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/process"
	"github.com/tradecourse/course-content/pkg/utils"
)

// ParseDocument splits a raw lesson file into front matter and body.
// Files without a front-matter block get a zero FrontMatter and the whole file as body.
func ParseDocument(moduleSlug, lessonSlug string, raw []byte) (models.Document, error) {
	doc := models.Document{ModuleSlug: moduleSlug, LessonSlug: lessonSlug}

	// The YAML decoder tolerates a missing closing fence, so check it here first.
	if _, err := process.StripFrontMatter(raw); err != nil {
		return doc, fmt.Errorf("%w: %s/%s: %w", utils.ErrFrontMatter, moduleSlug, lessonSlug, err)
	}

	var fm models.FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return doc, fmt.Errorf("%w: %s/%s: invalid YAML: %w", utils.ErrFrontMatter, moduleSlug, lessonSlug, err)
	}

	doc.FrontMatter = fm
	doc.RawBody = string(body)
	return doc, nil
}
