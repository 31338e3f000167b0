package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"travel-rag/internal/helper"
	"travel-rag/internal/models"
)

const vectorSize = 768

// pgDocument is one stored chunk row. A single table holds every
// collection; the collection column partitions curated content from user
// documents.
type pgDocument struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string    `bun:"id,pk"`
	Collection    string    `bun:"collection,notnull"`
	Owner         string    `bun:"owner"`
	Origin        string    `bun:"origin"`
	Source        string    `bun:"source"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Similarity    float32   `bun:"similarity,scanonly"`
}

// PostgresStore is a pgvector-backed VectorStore.
type PostgresStore struct {
	db *bun.DB
}

// ConnectPG opens the postgres connection for the vector store.
func ConnectPG(dsn, password string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
}

// NewPostgresStore wraps an open connection. Debug attaches the verbose
// query hook.
func NewPostgresStore(sqldb *sql.DB, debug bool) *PostgresStore {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresStore{db: db}
}

// Init creates the documents table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*pgDocument)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Add inserts the chunks with fresh UUID keys; writes are append-only.
func (s *PostgresStore) Add(ctx context.Context, collection string, chunks []models.ContentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]pgDocument, 0, len(chunks))
	for i, chunk := range chunks {
		if len(embeddings[i]) != vectorSize {
			return fmt.Errorf("embedding dimension mismatch: got %d, column is vector(%d)", len(embeddings[i]), vectorSize)
		}
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs = append(docs, pgDocument{
			ID:         id,
			Collection: collection,
			Owner:      chunk.Metadata[models.MetaUserID],
			Origin:     chunk.Metadata[models.MetaOrigin],
			Source:     chunk.Metadata[models.MetaSource],
			Content:    chunk.Text,
			Embedding:  embeddings[i],
		})
	}
	_, err := s.db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// Search runs a cosine-similarity query, applying the metadata filter and
// threshold in SQL.
func (s *PostgresStore) Search(ctx context.Context, collection string, queryEmbedding []float32, where map[string]string, threshold float32, topK int) ([]SearchResult, error) {
	var docs []pgDocument
	q := s.db.NewSelect().
		Model(&docs).
		Column("content", "owner", "origin", "source").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", queryEmbedding).
		Where("collection = ?", collection).
		Where("1 - (embedding <=> ?) >= ?", queryEmbedding, threshold).
		OrderExpr("embedding <=> ?", queryEmbedding).
		Limit(topK)

	if owner, ok := where[models.MetaUserID]; ok {
		q = q.Where("owner = ?", owner)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	hits := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, SearchResult{
			Content:    doc.Content,
			Similarity: doc.Similarity,
			Metadata: map[string]string{
				models.MetaUserID: doc.Owner,
				models.MetaOrigin: doc.Origin,
				models.MetaSource: doc.Source,
			},
		})
	}
	return hits, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
