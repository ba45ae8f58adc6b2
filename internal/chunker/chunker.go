// Package chunker splits extracted document text into token-bounded chunks.
// All chunkers are pure: no I/O, no randomness, same input same output.
package chunker

import (
	"strings"
	"unicode"
)

const defaultMaxTokens = 1000

// Chunker bounds chunks by an approximate token count. A single sentence or
// HTML element whose text alone exceeds the bound becomes its own chunk;
// units are never split mid-way.
type Chunker struct {
	maxTokens int
	container string
	count     TokenCounter
}

// New creates a chunker. maxTokens <= 0 selects the default bound of 1000,
// a nil counter falls back to whitespace word counting, and an empty
// container selects "page-content" for the HTML chunkers.
func New(maxTokens int, container string, count TokenCounter) *Chunker {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if container == "" {
		container = "page-content"
	}
	if count == nil {
		count = wordCounter
	}
	return &Chunker{maxTokens: maxTokens, container: container, count: count}
}

// ChunkText splits plain text into sentences on terminal punctuation and
// greedily packs them until the next sentence would cross the token bound.
func (c *Chunker) ChunkText(text string) []string {
	var chunks []string
	current := ""
	for _, sentence := range splitSentences(text) {
		potential := current + sentence + " "
		if c.count(potential) > c.maxTokens {
			if t := strings.TrimSpace(current); t != "" {
				chunks = append(chunks, t)
			}
			current = sentence + " "
		} else {
			current = potential
		}
	}
	if t := strings.TrimSpace(current); t != "" {
		chunks = append(chunks, t)
	}
	return chunks
}

// splitSentences cuts text after '.', '?' or '!' followed by whitespace.
// The whitespace run between sentences is consumed, matching a split on
// the boundary itself; anything left at the end is a sentence of its own.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if (r == '.' || r == '?' || r == '!') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			sentences = append(sentences, string(runes[start:i+1]))
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		if s := string(runes[start:]); strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
