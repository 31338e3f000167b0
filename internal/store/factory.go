package store

import (
	"context"
	"fmt"

	"travel-rag/internal/config"
)

// Backend names accepted by the factory.
const (
	BackendChromem  = "chromem"
	BackendPostgres = "postgres"
)

// NewVectorStore creates the backend named by the config.
// Supported backends: "chromem" (default), "postgres".
func NewVectorStore(ctx context.Context, cfg *config.StorageConfig) (VectorStore, error) {
	switch cfg.Backend {
	case BackendChromem, "":
		return NewChromemStore(cfg.Path)
	case BackendPostgres:
		sqldb := ConnectPG(cfg.DSN, cfg.Password)
		s := NewPostgresStore(sqldb, cfg.Debug)
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("initializing postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: chromem, postgres)", cfg.Backend)
	}
}
