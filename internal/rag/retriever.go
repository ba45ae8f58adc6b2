// Package rag implements retrieval over the chunk store and the bounded
// tool-call loop that grounds chat answers in retrieved chunks.
package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/naufalpram/ai-rag-chat/internal/models"
)

var ErrEmptyQuestion = errors.New("empty question")

// Retriever answers text-pipeline retrieval queries. Threshold and limit
// are policy, injected from config.
type Retriever struct {
	embedder  models.TextEmbedder
	store     models.TextStore
	threshold float64
	limit     int
}

func NewRetriever(embedder models.TextEmbedder, store models.TextStore, threshold float64, limit int) *Retriever {
	return &Retriever{embedder: embedder, store: store, threshold: threshold, limit: limit}
}

// Retrieve embeds the question, ranks stored chunks by cosine similarity
// and assembles guides plus the deduplicated source names. An empty result
// is a normal outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string) (*models.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := r.store.QueryBySimilarity(ctx, vector, r.threshold, r.limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	result := &models.RetrievalResult{Guides: []models.Guide{}, Sources: []string{}}
	seen := make(map[string]bool)
	for _, row := range rows {
		result.Guides = append(result.Guides, models.Guide{Text: row.Content, Similarity: row.Similarity})
		source := sourceName(row.FileName)
		if source != "" && !seen[source] {
			seen[source] = true
			result.Sources = append(result.Sources, source)
		}
	}
	return result, nil
}

// sourceName derives the human-readable source label from a file name by
// stripping the extension.
func sourceName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// MultimodalRetriever answers multimodal-pipeline retrieval queries. Its
// output shape (rows with image URLs) is distinct from the text pipeline's
// and the two are never served by one deployment.
type MultimodalRetriever struct {
	embedder  models.MultimodalEmbedder
	store     models.MultimodalStore
	threshold float64
	limit     int
}

func NewMultimodalRetriever(embedder models.MultimodalEmbedder, store models.MultimodalStore, threshold float64, limit int) *MultimodalRetriever {
	return &MultimodalRetriever{embedder: embedder, store: store, threshold: threshold, limit: limit}
}

func (r *MultimodalRetriever) Retrieve(ctx context.Context, question string) ([]models.MultimodalGuide, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	guides, err := r.store.QueryBySimilarity(ctx, vector, r.threshold, r.limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	if guides == nil {
		guides = []models.MultimodalGuide{}
	}
	return guides, nil
}

// AsTool adapts the retriever to the chat tool signature.
func (r *Retriever) AsTool() ToolFunc {
	return func(ctx context.Context, question string) (interface{}, error) {
		return r.Retrieve(ctx, question)
	}
}

// AsTool adapts the multimodal retriever to the chat tool signature.
func (r *MultimodalRetriever) AsTool() ToolFunc {
	return func(ctx context.Context, question string) (interface{}, error) {
		return r.Retrieve(ctx, question)
	}
}
