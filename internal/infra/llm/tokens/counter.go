package tokens

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding matches the chat completion models.
const DefaultEncoding = "cl100k_base"

// Counter measures text in model tokens. Without an encoder it falls back to
// a heuristic estimate.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter loads the named BPE encoding. Loading may download the ranks
// file, so callers usually keep the estimating counter on error.
func NewCounter(encoding string) (*Counter, error) {
	if strings.TrimSpace(encoding) == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &Counter{}, fmt.Errorf("load token encoding %q: %w", encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// NewEstimator returns a counter that never touches an encoder.
func NewEstimator() *Counter {
	return &Counter{}
}

// Count returns the token length of text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c != nil && c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return estimate(text)
}

// estimate charges one token per CJK rune and roughly one per four bytes of
// other words.
func estimate(text string) int {
	total := 0
	for _, word := range strings.Fields(text) {
		cjk := 0
		for _, r := range word {
			if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) {
				cjk++
			}
		}
		rest := len(word) - cjk*3
		if rest < 0 {
			rest = 0
		}
		n := cjk + (rest+3)/4
		if n == 0 && utf8.RuneCountInString(word) > 0 {
			n = 1
		}
		total += n
	}
	return total
}
