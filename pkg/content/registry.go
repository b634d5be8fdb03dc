package content

import (
	"fmt"
	"io"

	"github.com/yuin/goldmark"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/process"
	"github.com/tradecourse/course-content/pkg/utils"
)

// Renderable is a handle that writes a lesson's presentation form.
type Renderable interface {
	Render(w io.Writer) error
}

// markdownComponent renders a lesson body to HTML.
// Raw widget markup is omitted by the renderer; the text between widget tags is kept.
type markdownComponent struct {
	md   goldmark.Markdown
	key  models.LessonKey
	body []byte
}

// Render implements Renderable
func (c *markdownComponent) Render(w io.Writer) error {
	if err := c.md.Convert(c.body, w); err != nil {
		return fmt.Errorf("%w: rendering %s: %w", utils.ErrParsing, c.key, err)
	}
	return nil
}

// Registry maps (module, lesson) to a Renderable. It is built once and never mutated.
type Registry struct {
	components map[models.LessonKey]Renderable
}

// NewRegistry creates a handle for every document in repo.
func NewRegistry(repo Repository) *Registry {
	md := process.NewMarkdown()
	docs := repo.Documents()
	reg := &Registry{components: make(map[models.LessonKey]Renderable, len(docs))}
	for _, doc := range docs {
		reg.components[doc.Key()] = &markdownComponent{md: md, key: doc.Key(), body: []byte(doc.RawBody)}
	}
	return reg
}

// Lookup returns the handle for the exact (module, lesson) pair.
func (r *Registry) Lookup(moduleSlug, lessonSlug string) (Renderable, bool) {
	c, ok := r.components[models.LessonKey{Module: moduleSlug, Lesson: lessonSlug}]
	return c, ok
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	return len(r.components)
}
