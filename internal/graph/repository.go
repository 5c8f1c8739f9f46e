// Package graph is the typed, ownership-scoped data-access layer over the
// Neo4j property graph. Every read excludes archived nodes and every
// mutation matches through the owning user's CREATED edge, so a caller can
// never see or touch another owner's nodes; those misses surface as plain
// not-found errors.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/pkg/logger"
)

// Querier executes parameterized Cypher and returns the collected records.
// Satisfied by *store.Store; faked in tests.
type Querier interface {
	Read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)
	Write(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)
}

// Repository handles all graph database operations
type Repository struct {
	q      Querier
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(q Querier) *Repository {
	return &Repository{
		q:      q,
		logger: logger.Named("graph"),
	}
}
