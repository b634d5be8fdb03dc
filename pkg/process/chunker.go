package process

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunk is one retrieval-sized slice of a lesson body.
type Chunk struct {
	Content          string   // Markdown text, prefixed with its parent headings
	HeadingHierarchy []string // Headings that appear in Content, outermost first
	TokenCount       int
}

// ChunkerConfig holds token limits for chunking.
type ChunkerConfig struct {
	MaxChunkSize int // Tokens; sections above this are split again
	ChunkOverlap int // Tokens shared by consecutive fallback splits
}

// DefaultChunkerConfig returns the limits used when none are configured.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkSize: 512,
		ChunkOverlap: 50,
	}
}

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// Chunker splits lesson bodies by heading, then by size.
type Chunker struct {
	cfg     ChunkerConfig
	counter *TokenCounter // nil estimates
}

// NewChunker creates a chunker. A nil counter estimates token counts from length.
func NewChunker(cfg ChunkerConfig, counter *TokenCounter) *Chunker {
	def := DefaultChunkerConfig()
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.MaxChunkSize {
		cfg.ChunkOverlap = cfg.MaxChunkSize / 10
	}
	return &Chunker{cfg: cfg, counter: counter}
}

func (c *Chunker) count(s string) int {
	return c.counter.Count(s)
}

// Chunk splits markdown by headers, keeping parent headings on each piece,
// and re-splits any piece still above MaxChunkSize.
func (c *Chunker) Chunk(markdown string) ([]Chunk, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}

	recursive := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(c.cfg.ChunkOverlap),
		textsplitter.WithLenFunc(c.count),
	)
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithChunkSize(c.cfg.MaxChunkSize),
		textsplitter.WithChunkOverlap(c.cfg.ChunkOverlap),
		textsplitter.WithSecondSplitter(recursive),
		textsplitter.WithLenFunc(c.count),
	)

	parts, err := splitter.SplitText(markdown)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:          part,
			HeadingHierarchy: extractHeadingHierarchy(part),
			TokenCount:       c.count(part),
		})
	}
	return chunks, nil
}

// extractHeadingHierarchy lists the ATX heading texts found in content, in order.
func extractHeadingHierarchy(content string) []string {
	matches := headingRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	hierarchy := make([]string, 0, len(matches))
	for _, match := range matches {
		if heading := strings.TrimSpace(match[2]); heading != "" {
			hierarchy = append(hierarchy, heading)
		}
	}
	return hierarchy
}
