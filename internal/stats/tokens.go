package stats

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter counts tokens with a tiktoken encoding. Counts are
// approximate for non-OpenAI models but stable, which is what the usage
// charts need.
type TokenCounter struct {
	once  sync.Once
	model string
	enc   *tiktoken.Tiktoken
}

// NewTokenCounter creates a counter for a model name. The encoding is
// loaded lazily on first use because tiktoken initialization walks its
// embedded vocabulary.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

func (c *TokenCounter) load() {
	enc, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return
		}
	}
	c.enc = enc
}

// Count returns the token count of text, or 0 when no encoding could be
// loaded.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(c.load)
	if c.enc == nil {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
