package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecourse/course-content/pkg/content"
	"github.com/tradecourse/course-content/pkg/utils"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func writeLesson(t *testing.T, root, rel, body string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func TestCatalog_SnapshotBeforeLoad(t *testing.T) {
	c := New(t.TempDir(), content.LoadOptions{}, testLogger())
	_, err := c.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestCatalog_Load(t *testing.T) {
	root := t.TempDir()
	writeLesson(t, root, "risk/intro.mdx", "---\ntitle: Intro\norder: 1\n---\n# Risk\n")
	writeLesson(t, root, "risk/sizing.mdx", "---\ntitle: Sizing\norder: 1\nparent: intro\n---\n# Sizing\n")
	writeLesson(t, root, "basics/candles.md", "---\ntitle: Candles\n---\n# Candles\n")

	c := New(root, content.LoadOptions{}, testLogger())
	snap, err := c.Load(context.Background())
	require.NoError(t, err)

	current, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	require.Len(t, snap.Modules, 2)
	assert.Equal(t, "basics", snap.Modules[0].Slug)
	assert.Equal(t, []string{"intro", "sizing"}, snap.Modules[1].LessonSlugs())

	lc, err := snap.Loader.LoadLessonContent("risk", "sizing")
	require.NoError(t, err)
	require.NotNil(t, lc)
	assert.Equal(t, "Sizing", lc.FrontMatter.Title)
}

func TestCatalog_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	root := t.TempDir()
	writeLesson(t, root, "risk/intro.md", "---\ntitle: Intro\n---\n# Risk\n")

	c := New(root, content.LoadOptions{}, testLogger())
	first, err := c.Load(context.Background())
	require.NoError(t, err)

	writeLesson(t, root, "risk/intro.mdx", "---\ntitle: Intro again\n---\n# Risk\n")
	_, err = c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrDuplicateDocument))

	current, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestCatalog_LoadMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent"), content.LoadOptions{}, testLogger())
	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrFilesystem))
}

func TestCatalog_FingerprintAndReload(t *testing.T) {
	root := t.TempDir()
	writeLesson(t, root, "risk/intro.md", "---\ntitle: Intro\n---\n# Risk\n")

	c := New(root, content.LoadOptions{}, testLogger())
	fp1, files, err := c.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, files)

	writeLesson(t, root, "risk/sizing.md", "---\ntitle: Sizing\n---\n# Sizing\n")
	fp2, files, err := c.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.NotEqual(t, fp1, fp2)

	n, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
