package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naufalpram/ai-rag-chat/internal/models"
)

type stubEmbedder struct {
	queryErr error
	query    string
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.query = text
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return []float32{1}, nil
}

type stubTextStore struct {
	rows      []models.ScoredGuide
	threshold float64
	limit     int
}

func (s *stubTextStore) CreateResource(ctx context.Context, fileName string, chunks []models.EmbeddedChunk) (string, error) {
	return "", nil
}

func (s *stubTextStore) QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]models.ScoredGuide, error) {
	s.threshold = threshold
	s.limit = limit
	return s.rows, nil
}

func TestRetrieve_AssemblesGuidesAndSources(t *testing.T) {
	store := &stubTextStore{rows: []models.ScoredGuide{
		{Content: "first", Similarity: 0.9, FileName: "manual.pdf"},
		{Content: "second", Similarity: 0.7, FileName: "guide.html"},
		{Content: "third", Similarity: 0.6, FileName: "manual.pdf"},
	}}
	r := NewRetriever(&stubEmbedder{}, store, 0.5, 4)

	result, err := r.Retrieve(context.Background(), "how do I set this up?")
	require.NoError(t, err)
	require.Len(t, result.Guides, 3)
	assert.Equal(t, models.Guide{Text: "first", Similarity: 0.9}, result.Guides[0])
	assert.Equal(t, []string{"manual", "guide"}, result.Sources, "sources deduplicated, extensions stripped")
	assert.Equal(t, 0.5, store.threshold)
	assert.Equal(t, 4, store.limit)
}

func TestRetrieve_EmptyResultIsNormal(t *testing.T) {
	r := NewRetriever(&stubEmbedder{}, &stubTextStore{}, 0.5, 4)

	result, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, result.Guides)
	assert.Empty(t, result.Guides)
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
}

func TestRetrieve_EmptyQuestionRejected(t *testing.T) {
	r := NewRetriever(&stubEmbedder{}, &stubTextStore{}, 0.5, 4)
	_, err := r.Retrieve(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestRetrieve_ProviderErrorPropagates(t *testing.T) {
	embedder := &stubEmbedder{queryErr: errors.New("rate limit")}
	r := NewRetriever(embedder, &stubTextStore{}, 0.5, 4)
	_, err := r.Retrieve(context.Background(), "q")
	require.Error(t, err)
}

func TestRetrieve_SkipsSourceForMissingFileName(t *testing.T) {
	store := &stubTextStore{rows: []models.ScoredGuide{
		{Content: "orphaned", Similarity: 0.8, FileName: ""},
	}}
	r := NewRetriever(&stubEmbedder{}, store, 0.5, 4)

	result, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, result.Guides, 1)
	assert.Empty(t, result.Sources)
}

type stubMultimodalStore struct {
	rows []models.MultimodalGuide
}

func (s *stubMultimodalStore) CreateResource(ctx context.Context, fileName string, chunks []models.EmbeddedMultimodalChunk) (string, error) {
	return "", nil
}

func (s *stubMultimodalStore) QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]models.MultimodalGuide, error) {
	return s.rows, nil
}

type stubMultimodalEmbedder struct{}

func (s *stubMultimodalEmbedder) EmbedDocuments(ctx context.Context, chunks []models.MultimodalChunk) ([][]float32, error) {
	return nil, nil
}

func (s *stubMultimodalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func TestMultimodalRetrieve_PassesGuidesThrough(t *testing.T) {
	store := &stubMultimodalStore{rows: []models.MultimodalGuide{
		{Text: "wiring", Similarity: 0.77, ImageURLs: []string{"https://example.com/w.png"}},
	}}
	r := NewMultimodalRetriever(&stubMultimodalEmbedder{}, store, 0.5, 4)

	guides, err := r.Retrieve(context.Background(), "wiring?")
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, []string{"https://example.com/w.png"}, guides[0].ImageURLs)
}

func TestMultimodalRetrieve_EmptyIsNonNil(t *testing.T) {
	r := NewMultimodalRetriever(&stubMultimodalEmbedder{}, &stubMultimodalStore{}, 0.5, 4)
	guides, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, guides)
	assert.Empty(t, guides)
}
