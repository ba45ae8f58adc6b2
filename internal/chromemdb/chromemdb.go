// Package chromemdb provides an embedded chromem-go implementation of the
// text chunk store for local use without Postgres.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/naufalpram/ai-rag-chat/internal/helper"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

const compress = false

// Store keeps chunks in a chromem collection. The resource id and file name
// travel as document metadata since there is no relational side to join.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore opens or creates the collection. An empty path selects a purely
// in-memory database.
func NewStore(path, collectionName string) (*Store, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		if err := helper.CreateFolder(path); err != nil {
			return nil, fmt.Errorf("failed to create database folder: %v", err)
		}
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &Store{db: db, collection: collection}, nil
}

var _ models.TextStore = (*Store)(nil)

// CreateResource adds one chromem document per chunk.
func (s *Store) CreateResource(ctx context.Context, fileName string, chunks []models.EmbeddedChunk) (string, error) {
	resourceID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:      resourceID + "-" + strconv.Itoa(i),
			Content: chunk.Content,
			Metadata: map[string]string{
				"resource_id": resourceID,
				"file_name":   fileName,
			},
			Embedding: chunk.Embedding,
		})
	}
	if len(docs) == 0 {
		return resourceID, nil
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return "", fmt.Errorf("failed to add documents: %v", err)
	}
	return resourceID, nil
}

// QueryBySimilarity runs a cosine similarity search and applies the
// threshold and limit policy. chromem returns results best first already.
func (s *Store) QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]models.ScoredGuide, error) {
	n := limit
	if count := s.collection.Count(); count < n {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	var guides []models.ScoredGuide
	for _, result := range results {
		similarity := float64(result.Similarity)
		if similarity <= threshold {
			continue
		}
		guides = append(guides, models.ScoredGuide{
			Content:    result.Content,
			Similarity: similarity,
			FileName:   result.Metadata["file_name"],
		})
	}
	return guides, nil
}
