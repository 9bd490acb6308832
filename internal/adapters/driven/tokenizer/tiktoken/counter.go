// Package tiktoken counts prompt tokens with a BPE encoding from tiktoken-go.
package tiktoken

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is close enough to the judge models' tokenizers for context-window warnings.
const DefaultEncoding = "cl100k_base"

// bytesPerToken is the fallback ratio when no encoding can be loaded.
const bytesPerToken = 4

type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// Counter counts tokens. The encoding is loaded on first use, which may
// download the BPE ranks; if loading fails the counter falls back to a
// byte-length estimate.
type Counter struct {
	name string
	load func(name string) (encoder, error)

	once sync.Once
	enc  encoder
}

// New creates a counter for the named encoding (default cl100k_base).
func New(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{name: encoding, load: loadEncoding}
}

func loadEncoding(name string) (encoder, error) {
	return tiktoken.GetEncoding(name)
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	c.once.Do(func() {
		enc, err := c.load(c.name)
		if err != nil {
			logger.Warn("Token encoding %s unavailable, estimating: %v", c.name, err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate approximates a token count from the byte length.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + bytesPerToken - 1) / bytesPerToken
}
