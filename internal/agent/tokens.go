package agent

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens counts prompt tokens with the cl100k_base encoding. When
// the encoding cannot be loaded it falls back to a characters-over-four
// approximation.
func EstimateTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return (len(text) + 3) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}
