package process

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"

	"github.com/tradecourse/course-content/pkg/models"
	"github.com/tradecourse/course-content/pkg/utils"
)

// HeadingExtractor produces the table of contents for lesson bodies.
// It holds no per-call state and is safe for concurrent use.
type HeadingExtractor struct {
	md goldmark.Markdown
}

// NewHeadingExtractor creates an extractor using the shared markdown configuration.
func NewHeadingExtractor() *HeadingExtractor {
	return &HeadingExtractor{md: NewMarkdown()}
}

var defaultExtractor = NewHeadingExtractor()

// ExtractHeadings parses a lesson body and returns every heading in document order.
// A leading front-matter block is stripped first. Duplicate ids are kept as-is.
func ExtractHeadings(body []byte) ([]models.Heading, error) {
	return defaultExtractor.Extract(body)
}

// ExtractBodyHeadings is ExtractHeadings for a body whose front matter was already removed.
// A leading "---" line is treated as a thematic break.
func ExtractBodyHeadings(body []byte) ([]models.Heading, error) {
	return defaultExtractor.ExtractBody(body)
}

// Extract implements ExtractHeadings for this extractor.
func (e *HeadingExtractor) Extract(file []byte) ([]models.Heading, error) {
	stripped, err := StripFrontMatter(file)
	if err != nil {
		return nil, err
	}
	return e.ExtractBody(stripped)
}

// ExtractBody implements ExtractBodyHeadings for this extractor.
func (e *HeadingExtractor) ExtractBody(body []byte) ([]models.Heading, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid UTF-8", utils.ErrParsing)
	}
	doc := parseMarkdown(e.md, body)
	if err := checkWidgetTags(doc, body); err != nil {
		return nil, err
	}

	headings := make([]models.Heading, 0)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			headingText := HeadingText(heading, body)
			headings = append(headings, models.Heading{
				Depth: heading.Level,
				Text:  headingText,
				ID:    Slugify(headingText),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking markdown tree: %w", utils.ErrParsing, err)
	}
	return headings, nil
}

// widgetTag matches JSX-style component tags: capitalised names, optional dotted members.
var widgetTag = regexp.MustCompile(`<(/?)([A-Z][A-Za-z0-9]*(?:\.[A-Za-z0-9]+)*)\b[^<>]*?(/?)>`)

// checkWidgetTags verifies that embedded widget tags outside code are balanced.
// Lowercase HTML tags are left alone since markdown tolerates unclosed ones.
func checkWidgetTags(doc ast.Node, source []byte) error {
	var open []string

	visit := func(raw []byte) error {
		for _, m := range widgetTag.FindAllSubmatch(raw, -1) {
			closing, name, selfClosing := len(m[1]) > 0, string(m[2]), len(m[3]) > 0
			switch {
			case selfClosing:
			case closing:
				if len(open) == 0 || open[len(open)-1] != name {
					return fmt.Errorf("%w: unexpected closing tag </%s>", utils.ErrParsing, name)
				}
				open = open[:len(open)-1]
			default:
				open = append(open, name)
			}
		}
		return nil
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var raw []byte
		switch node := n.(type) {
		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				raw = append(raw, seg.Value(source)...)
			}
			if node.HasClosure() {
				raw = append(raw, node.ClosureLine.Value(source)...)
			}
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw = append(raw, seg.Value(source)...)
			}
		default:
			return ast.WalkContinue, nil
		}
		// Tags may span lines, so scan the node's raw text as one unit
		if err := visit(raw); err != nil {
			return ast.WalkStop, err
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: unclosed widget tag <%s>", utils.ErrParsing, open[len(open)-1])
	}
	return nil
}
