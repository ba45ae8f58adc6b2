package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

var _ models.TextEmbedder = (*TextEmbedder)(nil)

// TextEmbedder is the text-pipeline embedding client. It produces
// fixed-dimension vectors through an OpenAI-compatible or Ollama endpoint
// and does no retrying of its own; provider failures propagate to the caller.
type TextEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

// NewTextEmbedder builds the process-wide text embedding client.
func NewTextEmbedder(cfg *config.LLMConfig) (*TextEmbedder, error) {
	llm, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &TextEmbedder{embedder: embedder}, nil
}

func newEmbedderClient(cfg *config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai", "":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// EmbedDocuments embeds chunk contents in document mode.
func (e *TextEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embedder.EmbedDocuments(ctx, texts)
}

// EmbedQuery embeds a single query after normalization.
func (e *TextEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedder.EmbedQuery(ctx, NormalizeQuery(text))
}

// NormalizeQuery replaces literal two-character `\n` escape sequences with
// spaces. Real newline characters are left alone; queries arrive from chat
// clients that escape newlines before calling the tool.
func NormalizeQuery(text string) string {
	return strings.ReplaceAll(text, `\n`, " ")
}
