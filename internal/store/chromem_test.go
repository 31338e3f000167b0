package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-rag/internal/models"
)

func chunk(text, owner string) models.ContentChunk {
	return models.ContentChunk{
		Text: text,
		Metadata: map[string]string{
			models.MetaUserID: owner,
			models.MetaOrigin: models.OriginFile,
			models.MetaSource: "test.txt",
		},
		SourceLength: len(text),
	}
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	err = vs.Add(ctx, "document", []models.ContentChunk{chunk("goa beaches", "u1")}, [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	hits, err := vs.Search(ctx, "document", []float32{1, 0, 0}, nil, 0.9, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "goa beaches", hits[0].Content)
	assert.Equal(t, "u1", hits[0].Metadata[models.MetaUserID])
	assert.GreaterOrEqual(t, hits[0].Similarity, float32(0.9))
}

func TestChromemStore_WhereFilter(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	err = vs.Add(ctx, "document",
		[]models.ContentChunk{chunk("doc one", "u1"), chunk("doc two", "u2")},
		[][]float32{{1, 0, 0}, {1, 0, 0}})
	require.NoError(t, err)

	hits, err := vs.Search(ctx, "document", []float32{1, 0, 0}, map[string]string{models.MetaUserID: "u2"}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc two", hits[0].Content)
}

func TestChromemStore_ThresholdExcludesLowScores(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	err = vs.Add(ctx, "document",
		[]models.ContentChunk{chunk("relevant", "u1"), chunk("unrelated", "u1")},
		[][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)

	hits, err := vs.Search(ctx, "document", []float32{1, 0, 0}, nil, 0.9, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "relevant", hits[0].Content)
}

func TestChromemStore_EmptyCollection(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)

	hits, err := vs.Search(context.Background(), "document", []float32{1, 0, 0}, nil, 0.9, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestChromemStore_TopKClampedToCollectionSize(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	err = vs.Add(ctx, "document", []models.ContentChunk{chunk("only doc", "u1")}, [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	// topK larger than the collection must not error.
	hits, err := vs.Search(ctx, "document", []float32{1, 0, 0}, nil, 0.5, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChromemStore_ReingestIsAdditive(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)
	ctx := context.Background()

	same := []models.ContentChunk{chunk("identical content", "u1")}
	require.NoError(t, vs.Add(ctx, "document", same, [][]float32{{1, 0, 0}}))
	require.NoError(t, vs.Add(ctx, "document", same, [][]float32{{1, 0, 0}}))

	n, err := vs.Count("document")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChromemStore_CountMismatch(t *testing.T) {
	vs, err := NewChromemStore("")
	require.NoError(t, err)

	err = vs.Add(context.Background(), "document", []models.ContentChunk{chunk("a", "u1")}, nil)
	require.Error(t, err)
}
