// Package ingest turns uploaded files into persisted, embedded chunks.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/naufalpram/ai-rag-chat/internal/chunker"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

// Pipeline orchestrates decode, chunk, embed and persist for one uploaded
// file. The stores it is handed decide atomicity: the multimodal store
// commits everything in one transaction.
type Pipeline struct {
	chunker            *chunker.Chunker
	textEmbedder       models.TextEmbedder
	multimodalEmbedder models.MultimodalEmbedder
	textStore          models.TextStore
	multimodalStore    models.MultimodalStore
}

func NewPipeline(
	c *chunker.Chunker,
	textEmbedder models.TextEmbedder,
	multimodalEmbedder models.MultimodalEmbedder,
	textStore models.TextStore,
	multimodalStore models.MultimodalStore,
) *Pipeline {
	return &Pipeline{
		chunker:            c,
		textEmbedder:       textEmbedder,
		multimodalEmbedder: multimodalEmbedder,
		textStore:          textStore,
		multimodalStore:    multimodalStore,
	}
}

// Ingest runs the text pipeline: PDF text goes through the sentence
// chunker, HTML through the structure-aware chunker. Returns the created
// resource id.
func (p *Pipeline) Ingest(ctx context.Context, fileName string, data []byte) (string, error) {
	if fileName == "" {
		return "", ErrNoFile
	}

	var chunks []string
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".pdf":
		content, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf: %w", err)
		}
		chunks = p.chunker.ChunkText(content)
	case ".html":
		var err error
		chunks, err = p.chunker.ChunkHTML(string(data))
		if err != nil {
			return "", fmt.Errorf("parse html: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if len(chunks) == 0 {
		return "", ErrNoContent
	}

	vectors, err := p.textEmbedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	embedded := make([]models.EmbeddedChunk, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != models.TextEmbeddingDim {
			return "", fmt.Errorf("embedding dimension %d, want %d", len(vectors[i]), models.TextEmbeddingDim)
		}
		embedded[i] = models.EmbeddedChunk{Content: chunk, Embedding: vectors[i]}
	}

	resourceID, err := p.textStore.CreateResource(ctx, fileName, embedded)
	if err != nil {
		return "", fmt.Errorf("store resource: %w", err)
	}

	log.Info().Str("file", fileName).Int("chunks", len(chunks)).Str("resource_id", resourceID).Msg("Ingested document")
	return resourceID, nil
}

// IngestMultimodal runs the multimodal pipeline. HTML keeps its section
// structure and image references; PDF text is sentence-chunked and carries
// no images.
func (p *Pipeline) IngestMultimodal(ctx context.Context, fileName string, data []byte) (string, error) {
	if fileName == "" {
		return "", ErrNoFile
	}

	var chunks []models.MultimodalChunk
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".pdf":
		content, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf: %w", err)
		}
		for _, text := range p.chunker.ChunkText(content) {
			chunks = append(chunks, models.MultimodalChunk{Text: []string{text}})
		}
	case ".html":
		var err error
		chunks, err = p.chunker.ChunkMultimodal(string(data))
		if err != nil {
			return "", fmt.Errorf("parse html: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if len(chunks) == 0 {
		return "", ErrNoContent
	}

	vectors, err := p.multimodalEmbedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	embedded := make([]models.EmbeddedMultimodalChunk, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != models.MultimodalEmbeddingDim {
			return "", fmt.Errorf("embedding dimension %d, want %d", len(vectors[i]), models.MultimodalEmbeddingDim)
		}
		embedded[i] = models.EmbeddedMultimodalChunk{
			Content:       strings.Join(chunk.Text, "\n"),
			OriginalIndex: i,
			Embedding:     vectors[i],
			ImageURLs:     chunk.Images,
		}
	}

	resourceID, err := p.multimodalStore.CreateResource(ctx, fileName, embedded)
	if err != nil {
		return "", fmt.Errorf("store resource: %w", err)
	}

	log.Info().Str("file", fileName).Int("chunks", len(chunks)).Str("resource_id", resourceID).Msg("Ingested multimodal document")
	return resourceID, nil
}

// extractPDF pulls plain text from every page, in page order.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}
