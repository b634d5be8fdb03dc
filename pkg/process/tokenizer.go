package process

import (
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts tokens with a tiktoken encoding. It lets AI tutors and the export
// budget lesson text against model context sizes.
type TokenCounter struct {
	codec    tokenizer.Codec
	encoding string
}

// NewTokenCounter loads the named encoding.
// Common encodings: "cl100k_base" (GPT-4), "o200k_base" (GPT-4o), "p50k_base" (GPT-3).
// Unknown or empty names fall back to "cl100k_base".
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	var enc tokenizer.Encoding
	switch encoding {
	case "p50k_base":
		enc = tokenizer.P50kBase
	case "p50k_edit":
		enc = tokenizer.P50kEdit
	case "r50k_base":
		enc = tokenizer.R50kBase
	case "o200k_base":
		enc = tokenizer.O200kBase
	default:
		encoding = "cl100k_base"
		enc = tokenizer.Cl100kBase
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{codec: codec, encoding: encoding}, nil
}

// Encoding returns the encoding name in use.
func (c *TokenCounter) Encoding() string {
	return c.encoding
}

// Count returns the token count for text. A nil counter or an encoding failure
// falls back to an estimate.
func (c *TokenCounter) Count(text string) int {
	if c == nil || c.codec == nil {
		return estimateTokens(text)
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

// estimateTokens approximates four characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
