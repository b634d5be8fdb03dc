package process

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunker_ChunkEmpty(t *testing.T) {
	chunks, err := NewChunker(DefaultChunkerConfig(), nil).Chunk("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}

	chunks, err = NewChunker(DefaultChunkerConfig(), nil).Chunk("  \n\n ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for blank input, got %d", len(chunks))
	}
}

func TestChunker_ChunkSingleSmallChunk(t *testing.T) {
	markdown := "# Candlesticks\n\nA candle shows open, high, low and close."

	chunks, err := NewChunker(DefaultChunkerConfig(), nil).Chunk(markdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small lesson, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "Candlesticks") {
		t.Errorf("expected chunk to contain heading, got: %s", chunks[0].Content)
	}
	if chunks[0].TokenCount <= 0 {
		t.Errorf("expected positive token count, got %d", chunks[0].TokenCount)
	}
}

func TestChunker_ChunkHeaderHierarchy(t *testing.T) {
	markdown := `# Risk Management

Why position sizing matters.

## Position Sizing

Risk a fixed fraction of the account per trade.

### Fixed Fractional

Multiply equity by the risk fraction.

## Stop Placement

Place stops beyond structure, not at round numbers.
`

	chunks, err := NewChunker(ChunkerConfig{MaxChunkSize: 100, ChunkOverlap: 10}, nil).Chunk(markdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected multiple chunks, got %d", len(chunks))
	}

	foundWithHierarchy := false
	for _, chunk := range chunks {
		if len(chunk.HeadingHierarchy) > 0 {
			foundWithHierarchy = true
			break
		}
	}
	if !foundWithHierarchy {
		t.Error("expected at least one chunk with heading hierarchy")
	}
}

func TestChunker_BodyOpeningWithThematicBreak(t *testing.T) {
	body := "---\n# Entries\n\nWait for the retest.\n"

	chunks, err := NewChunker(DefaultChunkerConfig(), nil).Chunk(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "Wait for the retest.") {
		t.Errorf("body text missing from chunk: %q", chunks[0].Content)
	}
}

func TestChunker_ChunkLargeLesson(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# Trading Journal\n\n")
	for i := range 50 {
		fmt.Fprintf(&sb, "Entry %d: logged setup, entry, exit and the reason for each decision. ", i)
	}

	chunks, err := NewChunker(ChunkerConfig{MaxChunkSize: 100, ChunkOverlap: 10}, nil).Chunk(sb.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected long lesson to be split, got %d chunks", len(chunks))
	}
}

func TestNewChunker_NormalizesConfig(t *testing.T) {
	c := NewChunker(ChunkerConfig{MaxChunkSize: 0, ChunkOverlap: 600}, nil)
	if c.cfg.MaxChunkSize != 512 {
		t.Errorf("MaxChunkSize = %d, want 512", c.cfg.MaxChunkSize)
	}
	if c.cfg.ChunkOverlap != 51 {
		t.Errorf("ChunkOverlap = %d, want 51", c.cfg.ChunkOverlap)
	}
}

func TestExtractHeadingHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"no headings", "Just text.", nil},
		{"single", "# Trend", []string{"Trend"}},
		{"nested", "# Trend\n## Higher Highs\n### Pullbacks", []string{"Trend", "Higher Highs", "Pullbacks"}},
		{"not a heading", "#hashtag without space", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHeadingHierarchy(tt.content)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDefaultChunkerConfig(t *testing.T) {
	cfg := DefaultChunkerConfig()
	if cfg.MaxChunkSize != 512 {
		t.Errorf("expected MaxChunkSize 512, got %d", cfg.MaxChunkSize)
	}
	if cfg.ChunkOverlap != 50 {
		t.Errorf("expected ChunkOverlap 50, got %d", cfg.ChunkOverlap)
	}
}
