package process

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^\w-]`) // \w is ASCII-only: [0-9A-Za-z_]
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Slugify turns free heading text into an anchor id: lowercase, whitespace runs become a single
// hyphen, characters other than word characters and hyphens are dropped, hyphen runs collapse,
// and leading/trailing hyphens are trimmed.
//
// Two headings with the same text get the same id; callers that need unique anchors must
// disambiguate themselves.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = hyphenRun.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
