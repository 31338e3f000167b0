package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-rag/internal/models"
	"travel-rag/internal/store"
)

// vectorEmbedder maps known texts onto fixed unit vectors so similarity is
// predictable without a model server.
type vectorEmbedder struct {
	vectors map[string][]float32
}

func (e *vectorEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

var testEmbedder = &vectorEmbedder{vectors: map[string][]float32{
	"beaches":          {1, 0, 0},
	"Goa has beaches":  {1, 0, 0},
	"Manali mountains": {0, 1, 0},
}}

func addDocs(t *testing.T, vs store.VectorStore, collection string, docs []models.ContentChunk) {
	t.Helper()
	embeddings := make([][]float32, len(docs))
	for i, d := range docs {
		v, err := testEmbedder.EmbedQuery(context.Background(), d.Text)
		require.NoError(t, err)
		embeddings[i] = v
	}
	require.NoError(t, vs.Add(context.Background(), collection, docs, embeddings))
}

func newUserDocStore(t *testing.T) store.VectorStore {
	t.Helper()
	vs, err := store.NewChromemStore("")
	require.NoError(t, err)
	addDocs(t, vs, "document", []models.ContentChunk{
		{Text: "Goa has beaches", Metadata: map[string]string{models.MetaUserID: "u1", models.MetaOrigin: models.OriginFile}},
		{Text: "Manali mountains", Metadata: map[string]string{models.MetaUserID: "u1", models.MetaOrigin: models.OriginFile}},
		{Text: "Goa has beaches", Metadata: map[string]string{models.MetaUserID: "u2", models.MetaOrigin: models.OriginFile}},
	})
	return vs
}

func TestUserDocumentSource_OwnerIsolation(t *testing.T) {
	vs := newUserDocStore(t)
	src := NewUserDocumentSource(testEmbedder, vs, "document")

	docs, err := src.Search(context.Background(), "beaches", "u1", 0.9, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	for _, d := range docs {
		assert.Equal(t, "u1", d.Metadata[models.MetaUserID])
	}
}

func TestUserDocumentSource_EmptyOwnerFilterAppliedVerbatim(t *testing.T) {
	vs := newUserDocStore(t)
	src := NewUserDocumentSource(testEmbedder, vs, "document")

	// The filter is never bypassed: an empty owner matches only documents
	// owned by the empty identity, which is none of them.
	docs, err := src.Search(context.Background(), "beaches", "", 0.9, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUserDocumentSource_ScoreThreshold(t *testing.T) {
	vs := newUserDocStore(t)
	src := NewUserDocumentSource(testEmbedder, vs, "document")

	// "Manali mountains" is orthogonal to the query and falls below 0.9.
	docs, err := src.Search(context.Background(), "beaches", "u1", 0.9, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.GreaterOrEqual(t, docs[0].Score, float32(0.9))
	assert.Equal(t, "Goa has beaches", docs[0].Text)
}

func TestCuratedSource_IgnoresOwnerFilter(t *testing.T) {
	vs, err := store.NewChromemStore("")
	require.NoError(t, err)
	// Curated documents carry no owner identity.
	addDocs(t, vs, "trip_recommendation", []models.ContentChunk{
		{Text: "Goa has beaches", Metadata: map[string]string{models.MetaSource: "guide"}},
	})
	src := NewCuratedSource(testEmbedder, vs, "trip_recommendation")

	docs, err := src.Search(context.Background(), "beaches", "some-user", 0.9, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.SourceCurated, docs[0].SourceName)
	assert.Empty(t, docs[0].Metadata[models.MetaUserID])
}

func TestSource_EmptyCollection(t *testing.T) {
	vs, err := store.NewChromemStore("")
	require.NoError(t, err)
	src := NewCuratedSource(testEmbedder, vs, "trip_recommendation")

	docs, err := src.Search(context.Background(), "beaches", "", 0.9, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
