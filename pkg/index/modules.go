// Package index arranges documents into modules and orders each module's lessons.
package index

import (
	"cmp"
	"math"
	"slices"

	"github.com/tradecourse/course-content/pkg/models"
)

// BuildModules groups docs by module and flattens each module's parent/child forest into a
// pre-order display sequence. Siblings are ordered by their order value, stable on ties, with a
// missing order sorting after every numeric one.
//
// Documents whose parent is missing from the module, refers to themselves, or lies on a cycle
// never get reached from a root. They are appended after the walk as orphans, sorted the same
// way. Modules are returned sorted by slug. The result depends only on docs and their order.
func BuildModules(docs []models.Document) []models.Module {
	byModule := make(map[string][]models.Document)
	var moduleSlugs []string
	for _, doc := range docs {
		if _, seen := byModule[doc.ModuleSlug]; !seen {
			moduleSlugs = append(moduleSlugs, doc.ModuleSlug)
		}
		byModule[doc.ModuleSlug] = append(byModule[doc.ModuleSlug], doc)
	}
	slices.Sort(moduleSlugs)

	modules := make([]models.Module, 0, len(moduleSlugs))
	for _, slug := range moduleSlugs {
		modules = append(modules, buildModule(slug, byModule[slug]))
	}
	return modules
}

func buildModule(slug string, docs []models.Document) models.Module {
	present := make(map[string]bool, len(docs))
	for _, doc := range docs {
		present[doc.LessonSlug] = true
	}

	var roots []int
	children := make(map[string][]int)
	for i, doc := range docs {
		parent := doc.FrontMatter.Parent
		switch {
		case parent == "":
			roots = append(roots, i)
		case parent != doc.LessonSlug && present[parent]:
			children[parent] = append(children[parent], i)
		}
		// Dangling and self-referencing parents are left out of the walk
	}

	byOrder := func(a, b int) int {
		return cmp.Compare(sortKey(docs[a]), sortKey(docs[b]))
	}

	placed := make([]bool, len(docs))
	expanded := make(map[string]bool)
	lessons := make([]models.Lesson, 0, len(docs))

	var walk func(i, depth int)
	walk = func(i, depth int) {
		placed[i] = true
		lessons = append(lessons, toLesson(docs[i], depth, false))

		lessonSlug := docs[i].LessonSlug
		if expanded[lessonSlug] {
			return
		}
		expanded[lessonSlug] = true

		kids := slices.Clone(children[lessonSlug])
		slices.SortStableFunc(kids, byOrder)
		for _, k := range kids {
			if !placed[k] {
				walk(k, depth+1)
			}
		}
	}

	slices.SortStableFunc(roots, byOrder)
	for _, r := range roots {
		walk(r, 0)
	}

	var orphans []int
	for i := range docs {
		if !placed[i] {
			orphans = append(orphans, i)
		}
	}
	slices.SortStableFunc(orphans, byOrder)
	for _, o := range orphans {
		lessons = append(lessons, toLesson(docs[o], 0, true))
	}

	module := models.Module{Slug: slug, Lessons: lessons}
	applyModuleMetadata(&module, docs, lessons)
	return module
}

// sortKey maps a missing order to +Inf so unordered lessons sort last.
func sortKey(doc models.Document) float64 {
	if !doc.FrontMatter.HasOrder() {
		return math.Inf(1)
	}
	return *doc.FrontMatter.Order
}

func toLesson(doc models.Document, depth int, orphan bool) models.Lesson {
	return models.Lesson{
		Slug:        doc.LessonSlug,
		Title:       doc.FrontMatter.Title,
		Order:       doc.FrontMatter.Order,
		Parent:      doc.FrontMatter.Parent,
		Depth:       depth,
		Orphan:      orphan,
		Description: doc.FrontMatter.Description,
	}
}

// applyModuleMetadata fills each module-level field from the first lesson, in display order,
// that sets it.
func applyModuleMetadata(module *models.Module, docs []models.Document, lessons []models.Lesson) {
	bySlug := make(map[string]models.FrontMatter, len(docs))
	for _, doc := range docs {
		if _, ok := bySlug[doc.LessonSlug]; !ok {
			bySlug[doc.LessonSlug] = doc.FrontMatter
		}
	}

	firstSet := func(field func(models.FrontMatter) string) string {
		for _, l := range lessons {
			if v := field(bySlug[l.Slug]); v != "" {
				return v
			}
		}
		return ""
	}

	module.Title = firstSet(func(fm models.FrontMatter) string { return fm.ModuleTitle })
	module.Badge = firstSet(func(fm models.FrontMatter) string { return fm.ModuleBadge })
	module.Description = firstSet(func(fm models.FrontMatter) string { return fm.ModuleDescription })
	module.Image = firstSet(func(fm models.FrontMatter) string { return fm.ModuleImage })
}

// FindModule returns the module with the given slug.
func FindModule(modules []models.Module, slug string) (models.Module, bool) {
	i, found := slices.BinarySearchFunc(modules, slug, func(m models.Module, s string) int {
		return cmp.Compare(m.Slug, s)
	})
	if !found {
		return models.Module{}, false
	}
	return modules[i], true
}
