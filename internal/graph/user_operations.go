package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// UpsertUser merges the user node keyed by identifier. Repeated calls with
// the same identifier update name and email in place without duplicating
// the node.
func (r *Repository) UpsertUser(ctx context.Context, id urn.URN, name, email string) (*User, error) {
	query := `
		MERGE (u:User {id: $id})
		ON CREATE SET u.created = timestamp()
		SET u.name = $name
		SET u.email = $email
		RETURN u`
	records, err := r.q.Write(ctx, query, map[string]any{
		"id":    id.Raw(),
		"name":  name,
		"email": email,
	})
	if err != nil {
		return nil, err
	}
	return singleUser(records, id.Raw())
}

// GetUser fetches a user by identifier.
func (r *Repository) GetUser(ctx context.Context, id urn.URN) (*User, error) {
	query := `
		MATCH (u:User {id: $id})
		RETURN u`
	records, err := r.q.Read(ctx, query, map[string]any{
		"id": id.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return singleUser(records, id.Raw())
}

func singleUser(records []*neo4j.Record, id string) (*User, error) {
	if len(records) == 0 {
		return nil, errors.NewNotFound(id)
	}
	node, ok := nodeFromRecord(records[0], "u")
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return &User{
		ID:      stringProp(node, "id"),
		Name:    stringProp(node, "name"),
		Email:   stringProp(node, "email"),
		Created: int64Prop(node, "created"),
	}, nil
}
