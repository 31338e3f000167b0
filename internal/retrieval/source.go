// Package retrieval wraps the searchable collections and merges their
// results into one ranked context.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"travel-rag/internal/embedding"
	"travel-rag/internal/models"
	"travel-rag/internal/store"
)

// ErrSourceUnavailable classifies a backend failure during search, as
// opposed to a query that simply found nothing.
var ErrSourceUnavailable = errors.New("retrieval source unavailable")

// Source is one searchable collection. The variant set is closed: curated
// recommendations and user-uploaded documents.
type Source interface {
	Name() string
	Search(ctx context.Context, query, ownerFilter string, threshold float32, topK int) ([]models.ScoredDocument, error)
}

type vectorSource struct {
	name        string
	collection  string
	embedder    embedding.Embedder
	store       store.VectorStore
	filterOwner bool
}

// NewCuratedSource wraps the pre-populated, owner-less collection. The
// owner filter is ignored because curated content has no owner.
func NewCuratedSource(embedder embedding.Embedder, vs store.VectorStore, collection string) Source {
	return &vectorSource{
		name:       models.SourceCurated,
		collection: collection,
		embedder:   embedder,
		store:      vs,
	}
}

// NewUserDocumentSource wraps the owner-scoped document collection. The
// owner filter is applied verbatim on every search, empty or not, so one
// user can never see another's documents.
func NewUserDocumentSource(embedder embedding.Embedder, vs store.VectorStore, collection string) Source {
	return &vectorSource{
		name:        models.SourceUserDocuments,
		collection:  collection,
		embedder:    embedder,
		store:       vs,
		filterOwner: true,
	}
}

func (s *vectorSource) Name() string {
	return s.name
}

func (s *vectorSource) Search(ctx context.Context, query, ownerFilter string, threshold float32, topK int) ([]models.ScoredDocument, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: embedding query: %v", ErrSourceUnavailable, s.name, err)
	}

	var where map[string]string
	if s.filterOwner {
		where = map[string]string{models.MetaUserID: ownerFilter}
	}

	hits, err := s.store.Search(ctx, s.collection, queryEmbedding, where, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.name, err)
	}

	docs := make([]models.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, models.ScoredDocument{
			Text:       hit.Content,
			Score:      hit.Similarity,
			SourceName: s.name,
			Metadata:   hit.Metadata,
		})
	}
	return docs, nil
}
