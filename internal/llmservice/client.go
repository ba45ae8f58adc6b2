package llmservice

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/naufalpram/ai-rag-chat/internal/config"
)

// Client is the completion-provider client, constructed once at process
// start and injected where needed.
type Client struct {
	llm *openai.LLM
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm}, nil
}

// GenerateContent calls the model, passing through any tool definitions.
func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return c.llm.GenerateContent(ctx, messages, options...)
}
