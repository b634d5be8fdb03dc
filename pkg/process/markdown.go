package process

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// NewMarkdown returns the goldmark instance shared by heading extraction and lesson rendering.
// Headings receive an id attribute equal to Slugify of their text, so rendered anchors match
// the table of contents.
func NewMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(headingIDTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(widgetRenderer{}, 100)),
		),
	)
}

// parseMarkdown parses body into a goldmark document.
func parseMarkdown(md goldmark.Markdown, body []byte) ast.Node {
	return md.Parser().Parse(text.NewReader(body))
}

type headingIDTransformer struct{}

// Transform implements parser.ASTTransformer
func (headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			heading.SetAttributeString("id", []byte(Slugify(HeadingText(heading, source))))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

// HeadingText flattens the inline content of a heading into plain text.
// Nested emphasis, links, code spans and the text inside widget tags are kept; the widget tags
// themselves (raw inline HTML/JSX) are dropped.
func HeadingText(heading *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	collectInlineText(&buf, heading, source)
	return strings.TrimSpace(html.UnescapeString(buf.String()))
}

func collectInlineText(buf *bytes.Buffer, n ast.Node, source []byte) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			buf.Write(util.UnescapePunctuations(node.Segment.Value(source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(source))
		case *ast.RawHTML:
			// Widget/HTML tags carry no heading text
		default:
			collectInlineText(buf, child, source)
		}
	}
}

var anyTag = regexp.MustCompile(`<[^<>]*>`)

// widgetRenderer replaces raw HTML/JSX with the text it wraps. Inline tags render as nothing;
// an HTML block renders its inner text, escaped, inside a div.
type widgetRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer
func (r widgetRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
}

func (r widgetRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := node.(*ast.HTMLBlock)
	var raw bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw.Write(seg.Value(source))
	}
	if block.HasClosure() {
		raw.Write(block.ClosureLine.Value(source))
	}

	inner := strings.Join(strings.Fields(anyTag.ReplaceAllString(raw.String(), " ")), " ")
	if inner != "" {
		_, _ = w.WriteString("<div>")
		_, _ = w.WriteString(html.EscapeString(html.UnescapeString(inner)))
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkSkipChildren, nil
}

func (r widgetRenderer) renderRawHTML(util.BufWriter, []byte, ast.Node, bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}
