package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/naufalpram/ai-rag-chat/internal/models"
)

// ToolFunc executes the retrieval tool for one question and returns a
// JSON-serializable result.
type ToolFunc func(ctx context.Context, question string) (interface{}, error)

// ContentGenerator is the completion-provider surface the chat loop needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Chat drives the tool-call loop: the model may invoke the retrieval tool
// up to maxSteps times per turn before it is forced to answer with what it
// has. The model decides how to phrase an empty retrieval result.
type Chat struct {
	llm      ContentGenerator
	tool     ToolFunc
	maxSteps int
}

func NewChat(llm ContentGenerator, tool ToolFunc, maxSteps int) *Chat {
	return &Chat{llm: llm, tool: tool, maxSteps: maxSteps}
}

// Answer runs one chat turn for the given question.
func (c *Chat) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, models.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}
	tools := informationTools()

	for step := 0; step < c.maxSteps; step++ {
		resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTools(tools))
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no choices returned")
		}
		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, toolCall := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, toolCall)
		}
		messages = append(messages, assistant)

		for _, toolCall := range choice.ToolCalls {
			content, err := c.executeTool(ctx, toolCall)
			if err != nil {
				return "", err
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: toolCall.ID,
					Name:       toolCall.FunctionCall.Name,
					Content:    content,
				}},
			})
		}
	}

	// Step budget spent; one last call without tools forces a final answer.
	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Content, nil
}

func (c *Chat) executeTool(ctx context.Context, toolCall llms.ToolCall) (string, error) {
	if toolCall.FunctionCall == nil || toolCall.FunctionCall.Name != models.ToolGetInformation {
		log.Warn().Str("tool", fmt.Sprintf("%v", toolCall.FunctionCall)).Msg("Model requested unknown tool")
		return `{"error": "unknown tool"}`, nil
	}

	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(toolCall.FunctionCall.Arguments), &args); err != nil {
		return "", fmt.Errorf("decode tool arguments: %w", err)
	}

	result, err := c.tool(ctx, args.Question)
	if err != nil {
		return "", fmt.Errorf("%s: %w", models.ToolGetInformation, err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func informationTools() []llms.Tool {
	return []llms.Tool{{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        models.ToolGetInformation,
			Description: models.ToolGetInformationDescription,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"question": map[string]interface{}{
						"type":        "string",
						"description": "the users question",
					},
				},
				"required": []string{"question"},
			},
		},
	}}
}
