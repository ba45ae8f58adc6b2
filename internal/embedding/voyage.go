package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

const (
	inputTypeDocument = "document"
	inputTypeQuery    = "query"
)

var _ models.MultimodalEmbedder = (*VoyageEmbedder)(nil)

// VoyageEmbedder is the multimodal embedding client. Documents and queries
// are encoded asymmetrically by the provider, so every request carries an
// explicit input_type; callers pick the mode through the method they call.
// No retry logic lives here.
type VoyageEmbedder struct {
	baseURL   string
	apiKey    string
	model     string
	outputDim int
	client    *http.Client
}

// NewVoyageEmbedder builds the process-wide multimodal embedding client.
// The API key falls back to the VOYAGE_API_KEY environment variable.
func NewVoyageEmbedder(cfg *config.VoyageConfig) (*VoyageEmbedder, error) {
	key := cfg.Key
	if key == "" {
		key = os.Getenv("VOYAGE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("missing voyage API key")
	}
	return &VoyageEmbedder{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    key,
		model:     cfg.Model,
		outputDim: cfg.OutputDimension,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type multimodalContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type multimodalInput struct {
	Content []multimodalContent `json:"content"`
}

type embedRequest struct {
	Inputs          []multimodalInput `json:"inputs"`
	Model           string            `json:"model"`
	InputType       string            `json:"input_type"`
	OutputDimension int               `json:"output_dimension,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocuments embeds chunks in document mode, one vector per chunk in
// input order.
func (v *VoyageEmbedder) EmbedDocuments(ctx context.Context, chunks []models.MultimodalChunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	inputs := make([]multimodalInput, len(chunks))
	for i, chunk := range chunks {
		var content []multimodalContent
		if len(chunk.Text) > 0 {
			content = append(content, multimodalContent{Type: "text", Text: strings.Join(chunk.Text, "\n")})
		}
		for _, url := range chunk.Images {
			content = append(content, multimodalContent{Type: "image_url", ImageURL: url})
		}
		inputs[i] = multimodalInput{Content: content}
	}
	return v.embed(ctx, inputs, inputTypeDocument)
}

// EmbedQuery embeds a single query in query mode after normalization.
func (v *VoyageEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	inputs := []multimodalInput{{
		Content: []multimodalContent{{Type: "text", Text: NormalizeQuery(text)}},
	}}
	vectors, err := v.embed(ctx, inputs, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (v *VoyageEmbedder) embed(ctx context.Context, inputs []multimodalInput, inputType string) ([][]float32, error) {
	payload := embedRequest{
		Inputs:          inputs,
		Model:           v.model,
		InputType:       inputType,
		OutputDimension: v.outputDim,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/multimodalembeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("voyage embeddings failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode voyage response: %w", err)
	}
	if len(out.Data) != len(inputs) {
		return nil, fmt.Errorf("voyage returned %d embeddings for %d inputs", len(out.Data), len(inputs))
	}

	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
