package store

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"travel-rag/internal/helper"
	"travel-rag/internal/models"
)

const compress = false

// ChromemStore is an embedded vector store. With a path it persists to
// disk; without one it lives in memory.
type ChromemStore struct {
	db *chromem.DB
}

// NewChromemStore initializes the embedded store.
func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	return &ChromemStore{db: db}, nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	c, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return c, nil
}

// Add writes the chunks with their embeddings. Each document gets a fresh
// UUID key, so re-ingesting identical content is additive.
func (s *ChromemStore) Add(ctx context.Context, collection string, chunks []models.ContentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: embeddings[i],
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search runs a similarity query with an exact-match metadata filter.
func (s *ChromemStore) Search(ctx context.Context, collection string, queryEmbedding []float32, where map[string]string, threshold float32, topK int) ([]SearchResult, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK < n {
		n = topK
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       n,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity < threshold {
			continue
		}
		hits = append(hits, SearchResult{
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return hits, nil
}

// Count returns the number of documents in a collection.
func (s *ChromemStore) Count(collection string) (int, error) {
	col, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func (s *ChromemStore) Close() error {
	return nil
}
