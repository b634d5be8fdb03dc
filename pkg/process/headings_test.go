package process

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

func TestExtractHeadings_DuplicateSections(t *testing.T) {
	body := []byte("# Risk\n## Position Sizing\n## Position Sizing")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)

	assert.Equal(t, []models.Heading{
		{Depth: 1, Text: "Risk", ID: "risk"},
		{Depth: 2, Text: "Position Sizing", ID: "position-sizing"},
		{Depth: 2, Text: "Position Sizing", ID: "position-sizing"},
	}, headings)
}

func TestExtractHeadings_AllLevels(t *testing.T) {
	body := []byte("# H1\n## H2\n### H3\n#### H4\n##### H5\n###### H6\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	require.Len(t, headings, 6)
	for i, h := range headings {
		assert.Equal(t, i+1, h.Depth)
	}
}

func TestExtractHeadings_NoHeadings(t *testing.T) {
	headings, err := ExtractHeadings([]byte("Just plain text without any headings."))
	require.NoError(t, err)
	assert.NotNil(t, headings)
	assert.Empty(t, headings)

	headings, err = ExtractHeadings(nil)
	require.NoError(t, err)
	assert.Empty(t, headings)
}

func TestExtractHeadings_SetextHeadings(t *testing.T) {
	body := []byte("Market Structure\n================\n\nSwing Points\n------------\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	assert.Equal(t, []models.Heading{
		{Depth: 1, Text: "Market Structure", ID: "market-structure"},
		{Depth: 2, Text: "Swing Points", ID: "swing-points"},
	}, headings)
}

func TestExtractHeadings_InlineFormatting(t *testing.T) {
	body := []byte("## Using **RSI** with `14` periods\n\n### [Divergence](./divergence)\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	require.Len(t, headings, 2)
	assert.Equal(t, "Using RSI with 14 periods", headings[0].Text)
	assert.Equal(t, "using-rsi-with-14-periods", headings[0].ID)
	assert.Equal(t, "Divergence", headings[1].Text)
}

func TestExtractHeadings_IgnoresCodeBlocks(t *testing.T) {
	body := []byte("# Setup\n\n```\n# not a heading\n```\n\n    # indented code\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	assert.Equal(t, []models.Heading{{Depth: 1, Text: "Setup", ID: "setup"}}, headings)
}

func TestExtractHeadings_SkipsFrontMatter(t *testing.T) {
	body := []byte("---\ntitle: Entries\n# not a heading\n---\n# Entries\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	assert.Equal(t, []models.Heading{{Depth: 1, Text: "Entries", ID: "entries"}}, headings)
}

func TestExtractHeadings_WidgetText(t *testing.T) {
	body := []byte("## Entry <Badge>new</Badge>\n\n<Callout type=\"warning\">\nMind the spread.\n</Callout>\n\n## Exit <Icon name=\"x\" />\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	require.Len(t, headings, 2)
	assert.Equal(t, "Entry new", headings[0].Text)
	assert.Equal(t, "entry-new", headings[0].ID)
	assert.Equal(t, "Exit", headings[1].Text)
	assert.Equal(t, "exit", headings[1].ID)
}

func TestExtractHeadings_EntitiesDecoded(t *testing.T) {
	headings, err := ExtractHeadings([]byte("## Risk &amp; Reward\n"))
	require.NoError(t, err)
	require.Len(t, headings, 1)
	assert.Equal(t, "Risk & Reward", headings[0].Text)
	assert.Equal(t, "risk-reward", headings[0].ID)
}

func TestExtractHeadings_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"invalid utf8", []byte("# Title\n\xff\xfe")},
		{"unterminated front matter", []byte("---\ntitle: x\n# Title\n")},
		{"unclosed widget", []byte("# Title\n\n<Callout>\ntext\n")},
		{"stray closing widget", []byte("# Title\n\ntext </Callout>\n")},
		{"crossed widgets", []byte("<Tabs>\n<Tab>\n\n# Title\n\n</Tabs>\n</Tab>\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headings, err := ExtractHeadings(tt.body)
			require.Error(t, err)
			assert.Nil(t, headings)
			assert.True(t, errors.Is(err, utils.ErrParsing), "want ErrParsing, got %v", err)
		})
	}
}

func TestExtractHeadings_LowercaseHTMLTolerated(t *testing.T) {
	headings, err := ExtractHeadings([]byte("# Title\n\n<div>\nunclosed html\n"))
	require.NoError(t, err)
	assert.Len(t, headings, 1)
}

func TestExtractHeadings_IDsAreSlugsOfText(t *testing.T) {
	body := []byte("# Moving Averages: 50 vs 200!\n## Support & Resistance\n## ---Edge---\n")

	headings, err := ExtractHeadings(body)
	require.NoError(t, err)
	for _, h := range headings {
		assert.Equal(t, Slugify(h.Text), h.ID)
	}
}

func TestExtractBodyHeadings_LeadingThematicBreak(t *testing.T) {
	headings, err := ExtractBodyHeadings([]byte("---\n# Hidden\n---\n## Visible\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.Heading{
		{Depth: 1, Text: "Hidden", ID: "hidden"},
		{Depth: 2, Text: "Visible", ID: "visible"},
	}, headings)

	headings, err = ExtractBodyHeadings([]byte("---\n# Risk\n\nText.\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.Heading{{Depth: 1, Text: "Risk", ID: "risk"}}, headings)
}
