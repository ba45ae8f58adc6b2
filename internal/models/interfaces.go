package models

import "context"

// TextEmbedder converts text into fixed-dimension vectors via an external
// provider. Document and query embeddings go through separate methods so
// callers cannot mix them up.
type TextEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MultimodalEmbedder embeds text+image chunks as documents and plain text
// as queries. The document/query split matters: the provider encodes the
// two asymmetrically and using the wrong mode silently degrades retrieval.
type MultimodalEmbedder interface {
	EmbedDocuments(ctx context.Context, chunks []MultimodalChunk) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextStore persists embedded text chunks and answers similarity queries.
// CreateResource writes the resource row and all chunk rows for one
// ingested document. QueryBySimilarity returns rows whose similarity is
// strictly greater than threshold, ordered descending, at most limit.
type TextStore interface {
	CreateResource(ctx context.Context, fileName string, chunks []EmbeddedChunk) (string, error)
	QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]ScoredGuide, error)
}

// MultimodalStore persists embedded multimodal chunks and their image rows.
// CreateResource is atomic: resource, chunks and images all commit or none do.
type MultimodalStore interface {
	CreateResource(ctx context.Context, fileName string, chunks []EmbeddedMultimodalChunk) (string, error)
	QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]MultimodalGuide, error)
}
