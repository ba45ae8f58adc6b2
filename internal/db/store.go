package db

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"github.com/naufalpram/ai-rag-chat/internal/helper"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

// Store is the text-pipeline chunk store over Postgres+pgvector.
type Store struct {
	db *bun.DB
	// legacyNonAtomic restores the original two-write ingestion: resource
	// insert then chunk insert with no surrounding transaction. A failure
	// between the two leaves an orphaned resource, kept only for parity.
	legacyNonAtomic bool
}

func NewStore(db *bun.DB, legacyNonAtomic bool) *Store {
	return &Store{db: db, legacyNonAtomic: legacyNonAtomic}
}

// CreateResource inserts the resource row and one chunk row per embedded
// chunk. Unless legacy mode is on, both writes share one transaction.
func (s *Store) CreateResource(ctx context.Context, fileName string, chunks []models.EmbeddedChunk) (string, error) {
	resourceID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	resource := &Resource{ID: resourceID, FileName: fileName}

	rows := make([]Embedding, 0, len(chunks))
	for _, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return "", err
		}
		rows = append(rows, Embedding{
			ID:         id,
			ResourceID: resourceID,
			Content:    chunk.Content,
			Embedding:  pgvector.NewVector(chunk.Embedding),
		})
	}

	if s.legacyNonAtomic {
		if _, err := s.db.NewInsert().Model(resource).Exec(ctx); err != nil {
			return "", err
		}
		if len(rows) > 0 {
			if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return "", err
			}
		}
		return resourceID, nil
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(resource).Exec(ctx); err != nil {
			return err
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return resourceID, nil
}

// QueryBySimilarity returns chunks whose cosine similarity to the query
// vector is strictly above threshold, best first, with the owning
// resource's file name joined in.
func (s *Store) QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]models.ScoredGuide, error) {
	qv := pgvector.NewVector(vector)
	var rows []models.ScoredGuide
	err := s.db.NewSelect().
		TableExpr("embeddings AS e").
		ColumnExpr("e.content AS content").
		ColumnExpr("1 - (e.embedding <=> ?) AS similarity", qv).
		ColumnExpr("coalesce(r.file_name, '') AS file_name").
		Join("LEFT JOIN resources AS r ON r.id = e.resource_id").
		Where("1 - (e.embedding <=> ?) > ?", qv, threshold).
		OrderExpr("similarity DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MultimodalStore is the multimodal-pipeline chunk store. Ingestion writes
// resource, chunks and image rows in one transaction; any failure rolls the
// whole upload back.
type MultimodalStore struct {
	db *bun.DB
}

func NewMultimodalStore(db *bun.DB) *MultimodalStore {
	return &MultimodalStore{db: db}
}

func (s *MultimodalStore) CreateResource(ctx context.Context, fileName string, chunks []models.EmbeddedMultimodalChunk) (string, error) {
	resourceID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	resource := &Resource{ID: resourceID, FileName: fileName}

	rows := make([]EmbeddingMultiModal, 0, len(chunks))
	var images []ImageResource
	for _, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return "", err
		}
		rows = append(rows, EmbeddingMultiModal{
			ID:            id,
			ResourceID:    resourceID,
			Content:       chunk.Content,
			OriginalIndex: chunk.OriginalIndex,
			Embedding:     pgvector.NewVector(chunk.Embedding),
		})
		for _, url := range chunk.ImageURLs {
			imageID, err := helper.GenerateUUID()
			if err != nil {
				return "", err
			}
			images = append(images, ImageResource{ID: imageID, ImageURL: url, EmbeddingID: id})
		}
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(resource).Exec(ctx); err != nil {
			return err
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}
		if len(images) > 0 {
			if _, err := tx.NewInsert().Model(&images).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return resourceID, nil
}

type multimodalRow struct {
	Text       string   `bun:"text"`
	Similarity float64  `bun:"similarity"`
	ImageURLs  []string `bun:"image_urls,array"`
}

// QueryBySimilarity returns multimodal chunks above the similarity
// threshold, best first, with every image URL of each chunk aggregated in.
func (s *MultimodalStore) QueryBySimilarity(ctx context.Context, vector []float32, threshold float64, limit int) ([]models.MultimodalGuide, error) {
	qv := pgvector.NewVector(vector)
	var rows []multimodalRow
	err := s.db.NewSelect().
		TableExpr("embeddings_multimodal AS em").
		ColumnExpr("em.content AS text").
		ColumnExpr("1 - (em.embedding <=> ?) AS similarity", qv).
		ColumnExpr("coalesce(array_agg(ir.image_url) FILTER (WHERE ir.image_url IS NOT NULL), '{}') AS image_urls").
		Join("LEFT JOIN image_resources AS ir ON ir.embedding_id = em.id").
		Where("1 - (em.embedding <=> ?) > ?", qv, threshold).
		GroupExpr("em.id, em.content, em.embedding").
		OrderExpr("similarity DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	guides := make([]models.MultimodalGuide, len(rows))
	for i, row := range rows {
		urls := row.ImageURLs
		if urls == nil {
			urls = []string{}
		}
		guides[i] = models.MultimodalGuide{Text: row.Text, Similarity: row.Similarity, ImageURLs: urls}
	}
	return guides, nil
}
