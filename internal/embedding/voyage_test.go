package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

func newTestVoyage(t *testing.T, handler http.HandlerFunc) *VoyageEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	embedder, err := NewVoyageEmbedder(&config.VoyageConfig{
		BaseURL:         srv.URL,
		Key:             "test-key",
		Model:           "voyage-multimodal-3",
		OutputDimension: 4,
	})
	require.NoError(t, err)
	return embedder
}

func TestVoyageEmbedDocuments_SendsDocumentMode(t *testing.T) {
	var got embedRequest
	embedder := newTestVoyage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/multimodalembeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := embedResponse{}
		resp.Data = make([]struct {
			Embedding []float32 `json:"embedding"`
		}, len(got.Inputs))
		for i := range resp.Data {
			resp.Data[i].Embedding = []float32{1, 0, 0, 0}
		}
		json.NewEncoder(w).Encode(resp)
	})

	chunks := []models.MultimodalChunk{
		{Text: []string{"line one", "line two"}, Images: []string{"https://example.com/a.png"}},
		{Text: []string{"other"}},
	}
	vectors, err := embedder.EmbedDocuments(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	assert.Equal(t, "document", got.InputType)
	assert.Equal(t, "voyage-multimodal-3", got.Model)
	assert.Equal(t, 4, got.OutputDimension)
	require.Len(t, got.Inputs, 2)
	require.Len(t, got.Inputs[0].Content, 2)
	assert.Equal(t, "text", got.Inputs[0].Content[0].Type)
	assert.Equal(t, "line one\nline two", got.Inputs[0].Content[0].Text)
	assert.Equal(t, "image_url", got.Inputs[0].Content[1].Type)
	assert.Equal(t, "https://example.com/a.png", got.Inputs[0].Content[1].ImageURL)
}

func TestVoyageEmbedQuery_SendsQueryModeAndNormalizes(t *testing.T) {
	var got embedRequest
	embedder := newTestVoyage(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0, 1, 0, 0}}},
		})
	})

	vector, err := embedder.EmbedQuery(context.Background(), `what\nis this`)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vector)
	assert.Equal(t, "query", got.InputType)
	require.Len(t, got.Inputs, 1)
	assert.Equal(t, "what is this", got.Inputs[0].Content[0].Text)
}

func TestVoyageEmbed_ProviderErrorPropagatesWithoutRetry(t *testing.T) {
	calls := 0
	embedder := newTestVoyage(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := embedder.EmbedQuery(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, 1, calls, "provider failures must not be retried here")
}

func TestVoyageEmbed_CountMismatchRejected(t *testing.T) {
	embedder := newTestVoyage(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})

	_, err := embedder.EmbedDocuments(context.Background(), []models.MultimodalChunk{{Text: []string{"x"}}})
	require.Error(t, err)
}

func TestNewVoyageEmbedder_RequiresKey(t *testing.T) {
	t.Setenv("VOYAGE_API_KEY", "")
	_, err := NewVoyageEmbedder(&config.VoyageConfig{BaseURL: "http://localhost"})
	require.Error(t, err)
}
