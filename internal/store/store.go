// Package store provides the vector storage backends behind retrieval and
// ingestion. Collections are append-only; every chunk is independently
// keyed and immutable once written.
package store

import (
	"context"

	"travel-rag/internal/models"
)

// SearchResult is one similarity hit from a collection.
type SearchResult struct {
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// VectorStore is the storage engine contract the pipeline depends on.
// Where is an exact-match metadata filter applied verbatim by the backend.
type VectorStore interface {
	Add(ctx context.Context, collection string, chunks []models.ContentChunk, embeddings [][]float32) error
	Search(ctx context.Context, collection string, queryEmbedding []float32, where map[string]string, threshold float32, topK int) ([]SearchResult, error)
	Close() error
}
