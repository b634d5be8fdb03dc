package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func TestParseDocument(t *testing.T) {
	raw := []byte("---\ntitle: Position Sizing\norder: 2\nparent: risk\nmoduleBadge: Core\n---\n# Position Sizing\n")

	doc, err := ParseDocument("risk-management", "position-sizing", raw)
	require.NoError(t, err)

	assert.Equal(t, "risk-management", doc.ModuleSlug)
	assert.Equal(t, "position-sizing", doc.LessonSlug)
	assert.Equal(t, "Position Sizing", doc.FrontMatter.Title)
	require.True(t, doc.FrontMatter.HasOrder())
	assert.Equal(t, 2.0, *doc.FrontMatter.Order)
	assert.Equal(t, "risk", doc.FrontMatter.Parent)
	assert.Equal(t, "Core", doc.FrontMatter.ModuleBadge)
	assert.Contains(t, doc.RawBody, "# Position Sizing")
	assert.NotContains(t, doc.RawBody, "order: 2")
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	doc, err := ParseDocument("m", "l", []byte("# Just a body\n"))
	require.NoError(t, err)
	assert.Equal(t, "", doc.FrontMatter.Title)
	assert.False(t, doc.FrontMatter.HasOrder())
	assert.Contains(t, doc.RawBody, "# Just a body")
}

func TestParseDocument_Malformed(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "---\ntitle: [unclosed\n---\nBody",
		"unterminated": "---\ntitle: Entries\n# Body\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument("m", "l", []byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrFrontMatter))
			assert.Equal(t, "Content_FrontMatter", utils.CategorizeError(err))
		})
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "basics/intro.mdx", "---\ntitle: Intro\norder: 1\n---\n# Intro\n")
	writeFile(t, root, "basics/candles.md", "---\ntitle: Candles\norder: 2\n---\n# Candles\n")
	writeFile(t, root, "basics/notes.txt", "not a lesson")
	writeFile(t, root, "basics/.hidden.md", "---\ntitle: Hidden\n---\n")
	writeFile(t, root, "basics/wip.md", "---\ntitle: WIP\ndraft: true\n---\n")
	writeFile(t, root, "basics/nested/deep.md", "---\ntitle: Deep\n---\n")
	writeFile(t, root, "_partials/shared.md", "---\ntitle: Shared\n---\n")
	writeFile(t, root, "README.md", "# top-level file")
	writeFile(t, root, "risk/sizing.md", "---\ntitle: Sizing\n---\n")
	writeFile(t, root, "risk/scratch-old.md", "---\ntitle: Old\n---\n")

	opts := LoadOptions{Exclude: []*regexp.Regexp{regexp.MustCompile(`scratch-`)}}
	docs, err := LoadDir(context.Background(), root, opts, testLogger())
	require.NoError(t, err)

	var keys []string
	for _, d := range docs {
		keys = append(keys, d.Key().String())
	}
	assert.Equal(t, []string{"basics/candles", "basics/intro", "risk/sizing"}, keys)
	assert.Equal(t, "basics/intro.mdx", docs[1].SourcePath)
}

func TestLoadDir_IncludeDrafts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "basics/wip.md", "---\ntitle: WIP\ndraft: true\n---\n")

	docs, err := LoadDir(context.Background(), root, LoadOptions{IncludeDrafts: true}, testLogger())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].FrontMatter.Draft)
}

func TestLoadDir_ReportsEveryBrokenFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "basics/good.md", "---\ntitle: Good\n---\n")
	writeFile(t, root, "basics/bad1.md", "---\ntitle: [x\n---\n")
	writeFile(t, root, "basics/bad2.md", "---\ntitle: y\n")

	docs, err := LoadDir(context.Background(), root, LoadOptions{}, testLogger())
	require.Error(t, err)
	assert.Len(t, docs, 1)
	assert.True(t, errors.Is(err, utils.ErrFrontMatter))
	assert.Contains(t, err.Error(), "basics/bad1")
	assert.Contains(t, err.Error(), "basics/bad2")
}

func TestLoadDir_MissingRoot(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"), LoadOptions{}, testLogger())
	require.Error(t, err)
	assert.Equal(t, "Filesystem_NotExist", utils.CategorizeError(err))
}

func TestLoadDir_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "basics/intro.md", "# Intro\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadDir(ctx, root, LoadOptions{}, testLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanFingerprint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "basics/intro.md", "# Intro\n")

	fp1, n, err := ScanFingerprint(context.Background(), root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fp2, _, err := ScanFingerprint(context.Background(), root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	writeFile(t, root, "basics/candles.md", "# Candles\n")
	fp3, n, err := ScanFingerprint(context.Background(), root, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotEqual(t, fp1, fp3)
}

func TestMemoryRepository(t *testing.T) {
	docs := []models.Document{
		{ModuleSlug: "basics", LessonSlug: "intro", RawBody: "# Intro"},
		{ModuleSlug: "risk", LessonSlug: "intro", RawBody: "# Risk intro"},
	}
	repo, err := NewMemoryRepository(docs)
	require.NoError(t, err)

	doc, ok := repo.Get("risk", "intro")
	require.True(t, ok)
	assert.Equal(t, "# Risk intro", doc.RawBody)

	_, ok = repo.Get("risk", "missing")
	assert.False(t, ok)
	_, ok = repo.Get("basics/intro", "")
	assert.False(t, ok)

	assert.Equal(t, 2, repo.Len())
	listed := repo.Documents()
	listed[0].RawBody = "mutated"
	again, _ := repo.Get("basics", "intro")
	assert.Equal(t, "# Intro", again.RawBody)
}

func TestMemoryRepository_Duplicate(t *testing.T) {
	docs := []models.Document{
		{ModuleSlug: "basics", LessonSlug: "intro", SourcePath: "basics/intro.md"},
		{ModuleSlug: "basics", LessonSlug: "intro", SourcePath: "basics/intro.mdx"},
	}
	_, err := NewMemoryRepository(docs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrDuplicateDocument))
	assert.Contains(t, err.Error(), "basics/intro.mdx")
}

func TestMemoryRepository_Fingerprint(t *testing.T) {
	docs := []models.Document{{ModuleSlug: "basics", LessonSlug: "intro", RawBody: "a"}}
	r1, err := NewMemoryRepository(docs)
	require.NoError(t, err)
	r2, err := NewMemoryRepository(docs)
	require.NoError(t, err)
	assert.Equal(t, r1.Fingerprint(), r2.Fingerprint())

	docs[0].RawBody = "b"
	r3, err := NewMemoryRepository(docs)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Fingerprint(), r3.Fingerprint())
}

func TestRegistry(t *testing.T) {
	repo, err := NewMemoryRepository([]models.Document{
		{ModuleSlug: "risk", LessonSlug: "sizing", RawBody: "# Position Sizing\n\n<Callout>Risk 1%.</Callout>\n"},
	})
	require.NoError(t, err)

	reg := NewRegistry(repo)
	assert.Equal(t, 1, reg.Len())

	comp, ok := reg.Lookup("risk", "sizing")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, comp.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, `<h1 id="position-sizing">Position Sizing</h1>`)
	assert.Contains(t, out, "Risk 1%.")
	assert.NotContains(t, out, "<Callout>")
	assert.NotContains(t, out, "raw HTML omitted")

	_, ok = reg.Lookup("risk", "missing")
	assert.False(t, ok)
}

func TestPlainText(t *testing.T) {
	repo, err := NewMemoryRepository([]models.Document{
		{ModuleSlug: "risk", LessonSlug: "sizing", RawBody: "# Position Sizing\n\nRisk **1%** per trade.\n\n<Callout>\nNever average down.\n</Callout>\n\n- one\n- two\n"},
	})
	require.NoError(t, err)
	comp, ok := NewRegistry(repo).Lookup("risk", "sizing")
	require.True(t, ok)

	text, err := PlainText(comp)
	require.NoError(t, err)
	assert.Contains(t, text, "Position Sizing\n\nRisk 1% per trade.")
	assert.Contains(t, text, "Never average down.")
	assert.Contains(t, text, "one")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "**")
}
