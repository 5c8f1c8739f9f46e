// Package store executes parameterized Cypher against Neo4j and hides the
// session lifecycle from callers. Values always travel as bound parameters;
// only compile-time label constants are ever interpolated into query text.
package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/pkg/errors"
	"tangle/pkg/logger"
)

// Store wraps a Neo4j driver and executes one session per call.
type Store struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New creates a store around a connected driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		logger: logger.Named("store"),
	}
}

// Close closes the underlying driver connection.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Read executes a read query and collects all records.
func (s *Store) Read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	return s.run(ctx, neo4j.AccessModeRead, query, params)
}

// Write executes a write query and collects all records.
func (s *Store) Write(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	return s.run(ctx, neo4j.AccessModeWrite, query, params)
}

func (s *Store) run(ctx context.Context, mode neo4j.AccessMode, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, s.wrapErr(query, err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, s.wrapErr(query, err)
	}
	return records, nil
}

func (s *Store) wrapErr(query string, err error) error {
	if neo4j.IsConnectivityError(err) {
		s.logger.Error("store unreachable", zap.Error(err))
		return errors.NewStoreUnavailable(err)
	}
	s.logger.Error("query rejected", zap.Error(err))
	return errors.NewStoreQuery(query, err)
}
