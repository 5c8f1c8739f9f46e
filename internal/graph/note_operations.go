package graph

import (
	"context"

	"go.uber.org/zap"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// Imported Note Operations
// ============================================================================

// GetNote fetches an imported note by its composite identifier.
func (r *Repository) GetNote(ctx context.Context, owner urn.URN, id urn.URN) (*Note, error) {
	query := `
		MATCH (u:User {id: $userId})-[:CREATED]->(note:EvernoteNote {id: $noteId})
		RETURN note`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
		"noteId": id.Raw(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFound(id.Raw())
	}
	node, ok := nodeFromRecord(records[0], "note")
	if !ok {
		return nil, errors.NewNotFound(id.Raw())
	}
	return noteFromProps(node), nil
}

// CreateNote creates an imported note node with its CREATED edge. The
// identifier is the content-derived composite key, so the caller can check
// GetNote first to detect a re-import of the same document.
func (r *Repository) CreateNote(ctx context.Context, owner urn.URN, id urn.URN, title string, created, lastModified int64) (*Note, error) {
	query := `
		MATCH (u:User {id: $userId})
		CREATE (u)-[:CREATED]->(note:EvernoteNote {
			id: $noteId,
			title: $title,
			created: $created,
			lastModified: $lastModified,
			owner: $userId
		})
		RETURN note`
	records, err := r.q.Write(ctx, query, map[string]any{
		"userId":       owner.Raw(),
		"noteId":       id.Raw(),
		"title":        title,
		"created":      created,
		"lastModified": lastModified,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFound(id.Raw())
	}
	node, ok := nodeFromRecord(records[0], "note")
	if !ok {
		return nil, errors.NewNotFound(id.Raw())
	}

	r.logger.Debug("created imported note", zap.String("id", id.Raw()))
	return noteFromProps(node), nil
}
