package db

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/models"
)

// Resource is one ingested source document.
type Resource struct {
	bun.BaseModel `bun:"table:resources,alias:r"`
	ID            string `bun:"id,pk"`
	FileName      string `bun:"file_name,notnull"`
	Content       string `bun:"content,nullzero"`
}

// Embedding is one retrievable text chunk with its 768-dim vector.
type Embedding struct {
	bun.BaseModel `bun:"table:embeddings,alias:e"`
	ID            string          `bun:"id,pk"`
	ResourceID    string          `bun:"resource_id,nullzero"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector(768)"`
}

// EmbeddingMultiModal is one multimodal chunk with its 1024-dim vector.
// OriginalIndex links it back to its position in the chunker output.
type EmbeddingMultiModal struct {
	bun.BaseModel `bun:"table:embeddings_multimodal,alias:em"`
	ID            string          `bun:"id,pk"`
	ResourceID    string          `bun:"resource_id,nullzero"`
	Content       string          `bun:"content,notnull"`
	OriginalIndex int             `bun:"original_index,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector(1024)"`
}

// ImageResource is one image reference attached to a multimodal chunk.
type ImageResource struct {
	bun.BaseModel `bun:"table:image_resources,alias:ir"`
	ID            string `bun:"id,pk"`
	ImageURL      string `bun:"image_url,notnull"`
	EmbeddingID   string `bun:"embedding_id,nullzero"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.URL)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// InitDB creates the pgvector extension, the four tables and the cosine
// similarity indexes. Chunk and image rows cascade-delete with their owner.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().Model((*Resource)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := db.NewCreateTable().Model((*Embedding)(nil)).IfNotExists().
		ForeignKey(`("resource_id") REFERENCES "resources" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := db.NewCreateTable().Model((*EmbeddingMultiModal)(nil)).IfNotExists().
		ForeignKey(`("resource_id") REFERENCES "resources" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := db.NewCreateTable().Model((*ImageResource)(nil)).IfNotExists().
		ForeignKey(`("embedding_id") REFERENCES "embeddings_multimodal" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS embeddings_embedding_idx ON embeddings USING hnsw (embedding vector_cosine_ops)"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS embeddings_multimodal_embedding_idx ON embeddings_multimodal USING hnsw (embedding vector_cosine_ops)"); err != nil {
		return err
	}
	return nil
}

// DropTables removes everything InitDB created, children first.
func DropTables(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{
		(*ImageResource)(nil),
		(*EmbeddingMultiModal)(nil),
		(*Embedding)(nil),
		(*Resource)(nil),
	} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

var _ models.TextStore = (*Store)(nil)
var _ models.MultimodalStore = (*MultimodalStore)(nil)
