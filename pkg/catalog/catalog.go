// Package catalog owns the current content snapshot and swaps it atomically on reload.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/index"
	"github.com/tradecourse/course-content/pkg/lesson"
	"github.com/tradecourse/course-content/pkg/models"
)

// ErrNotLoaded is returned by Snapshot before the first successful Load.
var ErrNotLoaded = errors.New("content catalog not loaded")

// Snapshot is one immutable view of the content tree.
type Snapshot struct {
	Repository content.Repository
	Registry   *content.Registry
	Modules    []models.Module
	Loader     *lesson.Loader
	LoadedAt   time.Time
}

// Catalog loads the content directory and publishes snapshots to concurrent readers.
type Catalog struct {
	dir     string
	opts    content.LoadOptions
	log     *logrus.Entry
	current atomic.Pointer[Snapshot]
}

// New creates an empty Catalog for dir. Call Load before serving.
func New(dir string, opts content.LoadOptions, log *logrus.Entry) *Catalog {
	return &Catalog{dir: dir, opts: opts, log: log}
}

// Load reads the content directory and swaps in a new snapshot.
// On any failure the previous snapshot stays in place.
func (c *Catalog) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	docs, err := content.LoadDir(ctx, c.dir, c.opts, c.log)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", c.dir, err)
	}

	snap, err := NewSnapshot(docs, c.log)
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)

	c.log.WithFields(logrus.Fields{
		"modules":  len(snap.Modules),
		"lessons":  len(docs),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Content catalog loaded")
	return snap, nil
}

// NewSnapshot builds a snapshot from already parsed documents.
func NewSnapshot(docs []models.Document, log *logrus.Entry) (*Snapshot, error) {
	repo, err := content.NewMemoryRepository(docs)
	if err != nil {
		return nil, err
	}
	registry := content.NewRegistry(repo)
	modules := index.BuildModules(repo.Documents())
	return &Snapshot{
		Repository: repo,
		Registry:   registry,
		Modules:    modules,
		Loader:     lesson.NewLoader(repo, registry, modules, log.WithField("component", "lesson")),
		LoadedAt:   time.Now(),
	}, nil
}

// Snapshot returns the current snapshot.
func (c *Catalog) Snapshot() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Set publishes a prebuilt snapshot. Used by tests and embedders that load content themselves.
func (c *Catalog) Set(snap *Snapshot) {
	c.current.Store(snap)
}

// Dir returns the content directory the catalog reads from.
func (c *Catalog) Dir() string {
	return c.dir
}

// Options returns the load options the catalog uses.
func (c *Catalog) Options() content.LoadOptions {
	return c.opts
}

// Fingerprint summarises the lesson files on disk. Together with Reload it lets the
// watch scheduler drive the catalog.
func (c *Catalog) Fingerprint(ctx context.Context) (string, int, error) {
	return content.ScanFingerprint(ctx, c.dir, c.opts)
}

// Reload loads the content directory again and returns the number of lessons served.
func (c *Catalog) Reload(ctx context.Context) (int, error) {
	snap, err := c.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap.Repository.Documents()), nil
}
