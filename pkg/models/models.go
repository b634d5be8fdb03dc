package models

import "time"

// FrontMatter holds the metadata block authored at the top of a lesson file
type FrontMatter struct {
	Title             string   `yaml:"title" json:"title"`
	Order             *float64 `yaml:"order,omitempty" json:"order,omitempty"`   // nil = unset, sorts after any numeric order
	Parent            string   `yaml:"parent,omitempty" json:"parent,omitempty"` // Empty = root within the module
	Description       string   `yaml:"description,omitempty" json:"description,omitempty"`
	ModuleTitle       string   `yaml:"moduleTitle,omitempty" json:"moduleTitle,omitempty"`
	ModuleBadge       string   `yaml:"moduleBadge,omitempty" json:"moduleBadge,omitempty"`
	ModuleDescription string   `yaml:"moduleDescription,omitempty" json:"moduleDescription,omitempty"`
	ModuleImage       string   `yaml:"moduleImage,omitempty" json:"moduleImage,omitempty"`
	Draft             bool     `yaml:"draft,omitempty" json:"draft,omitempty"`
}

// HasOrder reports whether an order value was authored
func (f FrontMatter) HasOrder() bool {
	return f.Order != nil
}

// Document is one content file: its module/lesson key, parsed front matter and raw body
type Document struct {
	ModuleSlug  string      `json:"moduleSlug"`
	LessonSlug  string      `json:"lessonSlug"`
	FrontMatter FrontMatter `json:"frontmatter"`
	RawBody     string      `json:"-"`
	SourcePath  string      `json:"-"` // Relative to the content root; empty for in-memory documents
}

// Key returns the (module, lesson) identity of the document
func (d Document) Key() LessonKey {
	return LessonKey{Module: d.ModuleSlug, Lesson: d.LessonSlug}
}

// LessonKey identifies a lesson within the content tree
type LessonKey struct {
	Module string `json:"module"`
	Lesson string `json:"lesson"`
}

// String implements fmt.Stringer for logging
func (k LessonKey) String() string {
	return k.Module + "/" + k.Lesson
}

// Lesson is a document in its role as a module member, as shown in navigation
type Lesson struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Order       *float64 `json:"order,omitempty" yaml:"order,omitempty"`
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Depth       int      `json:"depth" yaml:"depth"`                       // 0 for roots; orphans are always 0
	Orphan      bool     `json:"orphan,omitempty" yaml:"orphan,omitempty"` // Parent could not be resolved in the walk
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Module is a named, ordered collection of lessons
type Module struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Badge       string   `json:"badge,omitempty" yaml:"badge,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	Lessons     []Lesson `json:"lessons" yaml:"lessons"`
}

// LessonSlugs returns the module's lesson slugs in display order
func (m Module) LessonSlugs() []string {
	slugs := make([]string, len(m.Lessons))
	for i, l := range m.Lessons {
		slugs[i] = l.Slug
	}
	return slugs
}

// Heading is one heading node found in a lesson body
type Heading struct {
	Depth int    `json:"depth" yaml:"depth"`
	Text  string `json:"text" yaml:"text"`
	ID    string `json:"id" yaml:"id"`
}

// LessonContent is the unit handed to the lesson page: metadata, raw body and table of contents
type LessonContent struct {
	Module      string      `json:"module"`
	Lesson      string      `json:"lesson"`
	FrontMatter FrontMatter `json:"frontmatter"`
	Content     string      `json:"content"`
	Headings    []Heading   `json:"headings"`
}

// NavLink points at a neighbouring lesson within the same module
type NavLink struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Navigation holds the previous/next lessons around a given lesson
type Navigation struct {
	Module   string   `json:"module"`
	Position int      `json:"position"` // 1-based position in the module
	Total    int      `json:"total"`
	Previous *NavLink `json:"previous,omitempty"`
	Next     *NavLink `json:"next,omitempty"`
}

// ProgressEntry stores a user's completion state for one lesson
type ProgressEntry struct {
	UserID      string         `json:"user_id"`
	Module      string         `json:"module"`
	Lesson      string         `json:"lesson"`
	Status      ProgressStatus `json:"status"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Note is a user's free-text note attached to a lesson
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Module    string    `json:"module"`
	Lesson    string    `json:"lesson"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonJSONL is one line of the lessons export file
type LessonJSONL struct {
	Module      string    `json:"module"`
	Lesson      string    `json:"lesson"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	Headings    []string  `json:"headings"`
	Content     string    `json:"content"` // Plain text, widget markup removed
	ContentHash string    `json:"content_hash"`
	TokenCount  int       `json:"token_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// ChunkJSONL is one line of the chunks export file
type ChunkJSONL struct {
	Module           string   `json:"module"`
	Lesson           string   `json:"lesson"`
	Title            string   `json:"title"`
	ChunkIndex       int      `json:"chunk_index"`
	Content          string   `json:"content"`
	HeadingHierarchy []string `json:"heading_hierarchy,omitempty"`
	TokenCount       int      `json:"token_count"`
}

// ExportMetadata summarises a single export run
type ExportMetadata struct {
	ContentDir      string           `yaml:"content_dir"`
	ExportStartTime time.Time        `yaml:"export_start_time"`
	ExportEndTime   time.Time        `yaml:"export_end_time"`
	Fingerprint     string           `yaml:"fingerprint"`
	TotalModules    int              `yaml:"total_modules"`
	TotalLessons    int              `yaml:"total_lessons"`
	TotalChunks     int              `yaml:"total_chunks"`
	FailedLessons   []string         `yaml:"failed_lessons,omitempty"`
	Modules         []ModuleMetadata `yaml:"modules"`
}

// ModuleMetadata holds per-module export metadata
type ModuleMetadata struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title,omitempty"`
	LessonCount int      `yaml:"lesson_count"`
	Orphans     []string `yaml:"orphans,omitempty"`
}
