package models

// MultimodalChunk is one retrievable unit produced by the multimodal
// chunker: the ordered text lines of a section plus the image references
// found inside it. Text may be empty only when Images is not.
type MultimodalChunk struct {
	Text   []string `json:"text"`
	Images []string `json:"image,omitempty"`
}

// EmbeddedChunk pairs a text chunk with its embedding vector.
type EmbeddedChunk struct {
	Content   string
	Embedding []float32
}

// EmbeddedMultimodalChunk pairs a multimodal chunk with its embedding
// vector. OriginalIndex is the chunk's position in the chunker output and
// links persisted image rows back to their source chunk.
type EmbeddedMultimodalChunk struct {
	Content       string
	OriginalIndex int
	Embedding     []float32
	ImageURLs     []string
}

// ScoredGuide is one similarity-ranked row returned by a text store.
type ScoredGuide struct {
	Content    string
	Similarity float64
	FileName   string
}

// Guide is one retrieved chunk as exposed to callers.
type Guide struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// RetrievalResult is the text-pipeline retrieval output: ranked guides plus
// the deduplicated source document names they came from.
type RetrievalResult struct {
	Guides  []Guide  `json:"guides"`
	Sources []string `json:"sources"`
}

// MultimodalGuide is one similarity-ranked row returned by the multimodal
// pipeline, with every image URL belonging to the chunk.
type MultimodalGuide struct {
	Text       string   `json:"text"`
	Similarity float64  `json:"similarity"`
	ImageURLs  []string `json:"imageUrls"`
}
