package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tradecourse/course-content/pkg/utils"
)

// PlainText renders a lesson and returns its visible text, one block element per paragraph.
// Widget markup is gone; the prose inside widgets stays.
func PlainText(r Renderable) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("%w: reading rendered HTML: %w", utils.ErrParsing, err)
	}

	blocks := make([]string, 0)
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return strings.Join(blocks, "\n\n"), nil
}
