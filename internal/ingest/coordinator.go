package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"travel-rag/internal/embedding"
	"travel-rag/internal/models"
	"travel-rag/internal/store"
)

// Branch identifiers used for aggregate failure entries.
const (
	itemFiles = "files"
	itemURLs  = "urls"
)

// Coordinator orchestrates one ingestion batch: parse both branches,
// persist, then wait out the index settling delay. It always returns a
// result, never an error.
type Coordinator struct {
	ingestor    *ContentIngestor
	embedder    embedding.Embedder
	store       store.VectorStore
	collection  string
	settleDelay time.Duration
}

// NewCoordinator wires the ingestion collaborators.
func NewCoordinator(ingestor *ContentIngestor, embedder embedding.Embedder, vs store.VectorStore, collection string, settleDelay time.Duration) *Coordinator {
	return &Coordinator{
		ingestor:    ingestor,
		embedder:    embedder,
		store:       vs,
		collection:  collection,
		settleDelay: settleDelay,
	}
}

// Ingest runs the batch. The file branch and the URL branch are
// independent: a failure in one is recorded and the other still runs.
// After any successful write it waits the settling delay so a query issued
// right after ingestion finds the new content.
func (c *Coordinator) Ingest(ctx context.Context, req models.IngestionRequest) models.IngestionResult {
	if req.Empty() {
		return models.IngestionResult{}
	}

	var result models.IngestionResult

	if len(req.Files) > 0 {
		chunks, failures := c.ingestor.FromFiles(ctx, req.UserID, req.Files)
		result.Failures = append(result.Failures, failures...)
		result.Succeeded += c.persist(ctx, itemFiles, chunks, &result)
	}

	if len(req.URLs) > 0 {
		chunks, failures := c.ingestor.FromURLs(ctx, req.UserID, req.URLs)
		result.Failures = append(result.Failures, failures...)
		result.Succeeded += c.persist(ctx, itemURLs, chunks, &result)
	}

	if result.Succeeded > 0 {
		c.settle(ctx)
	}

	log.Info().
		Int("succeeded", result.Succeeded).
		Int("failures", len(result.Failures)).
		Str("userId", req.UserID).
		Msg("Ingestion batch complete")
	return result
}

// persist embeds and stores one branch's chunks, recording a persistence
// failure entry on error. Returns the number of chunks written.
func (c *Coordinator) persist(ctx context.Context, item string, chunks []models.ContentChunk, result *models.IngestionResult) int {
	if len(chunks) == 0 {
		return 0
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := embedding.EmbedChunks(ctx, c.embedder, texts)
	if err != nil {
		log.Error().Err(err).Str("branch", item).Msg("Failed to embed chunks")
		result.Failures = append(result.Failures, models.Failure{
			Item: item,
			Kind: models.FailurePersist,
			Err:  err.Error(),
		})
		return 0
	}

	if err := c.store.Add(ctx, c.collection, chunks, vectors); err != nil {
		log.Error().Err(err).Str("branch", item).Msg("Failed to store chunks")
		result.Failures = append(result.Failures, models.Failure{
			Item: item,
			Kind: models.FailurePersist,
			Err:  err.Error(),
		})
		return 0
	}
	return len(chunks)
}

// settle waits for the search index to pick up the write. A fixed delay is
// a poll-free approximation of index-build completion; the duration comes
// from config, and caller cancellation cuts it short.
func (c *Coordinator) settle(ctx context.Context) {
	if c.settleDelay <= 0 {
		return
	}
	log.Debug().Dur("delay", c.settleDelay).Msg("Waiting for index to settle")
	select {
	case <-ctx.Done():
	case <-time.After(c.settleDelay):
	}
}
