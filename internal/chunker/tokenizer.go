package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter reports an approximate token count for s in the granularity
// the embedding models expect.
type TokenCounter func(s string) int

// NewTiktokenCounter returns a counter backed by the cl100k_base BPE. The
// embedding providers do not publish their own tokenizers, so this is a
// known approximation; chunk bounds only need to be roughly model-sized.
func NewTiktokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}, nil
}

// wordCounter is the fallback when no tokenizer is supplied.
func wordCounter(s string) int {
	return len(strings.Fields(s))
}
