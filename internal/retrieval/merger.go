package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"travel-rag/internal/models"
)

// Merger composes the per-request selection of sources into one ranked
// result list.
type Merger struct {
	sources   map[string]Source
	threshold float32
	topK      int
}

// NewMerger registers the fixed source set with the shared threshold and
// per-source result bound.
func NewMerger(threshold float32, topK int, sources ...Source) *Merger {
	m := &Merger{
		sources:   make(map[string]Source, len(sources)),
		threshold: threshold,
		topK:      topK,
	}
	for _, s := range sources {
		m.sources[s.Name()] = s
	}
	return m
}

// Retrieve runs the request against its selected sources.
//
// An empty selection yields an empty result without touching any source.
// A single source's ranking passes through unmodified. With several
// sources, any one failure fails the whole merge: a half-populated context
// presented as complete misleads the generation step.
func (m *Merger) Retrieve(ctx context.Context, req models.RetrievalRequest) ([]models.ScoredDocument, error) {
	if len(req.Sources) == 0 {
		log.Debug().Msg("No sources selected, returning empty context")
		return nil, nil
	}

	selected := make([]Source, 0, len(req.Sources))
	for _, name := range req.Sources {
		src, ok := m.sources[name]
		if !ok {
			return nil, fmt.Errorf("unknown retrieval source: %q", name)
		}
		selected = append(selected, src)
	}

	if len(selected) == 1 {
		return selected[0].Search(ctx, req.Query, req.UserID, m.threshold, m.topK)
	}

	var merged []models.ScoredDocument
	for _, src := range selected {
		docs, err := src.Search(ctx, req.Query, req.UserID, m.threshold, m.topK)
		if err != nil {
			return nil, err
		}
		merged = append(merged, docs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged, nil
}
