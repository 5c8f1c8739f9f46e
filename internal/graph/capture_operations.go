package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/internal/parse"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// Capture Operations
// ============================================================================

// liveCapture is the archived-exclusion predicate shared by every read.
const liveCapture = `(capture.archived IS NULL OR capture.archived = false)`

// CreateCapture creates a capture node owned by owner, with its CREATED
// edge. When parent resolves to a Session or EvernoteNote owned by the same
// user, an INCLUDES edge from the parent is created in the same write.
func (r *Repository) CreateCapture(ctx context.Context, owner urn.URN, plainText, html string, parent urn.URN) (*Capture, error) {
	captureURN := urn.NewCapture()

	params := map[string]any{
		"userId":     owner.Raw(),
		"captureUrn": captureURN.Raw(),
		"plainText":  parse.Escape(plainText),
		"html":       parse.Escape(html),
	}

	query := `
		MATCH (u:User {id: $userId})
		CREATE (u)-[:CREATED]->(capture:Capture {
			id: $captureUrn,
			body: $html,
			plainText: $plainText,
			created: timestamp(),
			owner: $userId
		})
		RETURN capture`

	if !parent.IsZero() {
		params["parentId"] = parent.Raw()
		query = `
		MATCH (u:User {id: $userId})
		OPTIONAL MATCH (u)-[:CREATED]->(parent {id: $parentId})
		WHERE parent:Session OR parent:EvernoteNote
		CREATE (u)-[:CREATED]->(capture:Capture {
			id: $captureUrn,
			body: $html,
			plainText: $plainText,
			created: timestamp(),
			owner: $userId
		})
		FOREACH (p IN CASE WHEN parent IS NULL THEN [] ELSE [parent] END |
			CREATE (p)-[:INCLUDES]->(capture))
		RETURN capture`
	}

	records, err := r.q.Write(ctx, query, params)
	if err != nil {
		return nil, err
	}
	capture, err := singleCapture(records, captureURN.Raw())
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created capture",
		zap.String("id", capture.ID),
		zap.Bool("has_parent", !parent.IsZero()),
	)
	return capture, nil
}

// EditCapture overwrites a capture's body and plain text. All relationships
// on the capture except CREATED and INCLUDES are deleted in the same write:
// derived links (tags, entities) are stale after an edit and the caller is
// expected to recompute them afterwards.
func (r *Repository) EditCapture(ctx context.Context, owner urn.URN, id urn.URN, plainText, html string) (*Capture, error) {
	query := `
		MATCH (capture:Capture {id: $captureUrn})<-[:CREATED]-(u:User {id: $userId})
		OPTIONAL MATCH (capture)-[r]-(other)
		WHERE type(r) <> "CREATED" AND type(r) <> "INCLUDES"
		DELETE r
		SET capture.plainText = $plainText
		SET capture.body = $html
		RETURN capture`
	records, err := r.q.Write(ctx, query, map[string]any{
		"captureUrn": id.Raw(),
		"userId":     owner.Raw(),
		"plainText":  parse.Escape(plainText),
		"html":       parse.Escape(html),
	})
	if err != nil {
		return nil, err
	}
	return singleCapture(records, id.Raw())
}

// ArchiveCapture soft-deletes a capture. Archiving an already archived
// capture is a no-op, not an error.
func (r *Repository) ArchiveCapture(ctx context.Context, owner urn.URN, id urn.URN) (*Capture, error) {
	query := `
		MATCH (capture:Capture {id: $captureUrn})<-[:CREATED]-(u:User {id: $userId})
		SET capture.archived = true
		RETURN capture`
	records, err := r.q.Write(ctx, query, map[string]any{
		"captureUrn": id.Raw(),
		"userId":     owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return singleCapture(records, id.Raw())
}

// GetCapture fetches a single live capture owned by owner.
func (r *Repository) GetCapture(ctx context.Context, owner urn.URN, id urn.URN) (*Capture, error) {
	query := `
		MATCH (capture:Capture {id: $captureUrn})<-[:CREATED]-(u:User {id: $userId})
		WHERE ` + liveCapture + `
		RETURN capture`
	records, err := r.q.Read(ctx, query, map[string]any{
		"captureUrn": id.Raw(),
		"userId":     owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return singleCapture(records, id.Raw())
}

// GetMostRecent returns a page of live captures, newest first.
func (r *Repository) GetMostRecent(ctx context.Context, owner urn.URN, start, count int) ([]Capture, error) {
	query := `
		MATCH (capture:Capture)<-[:CREATED]-(u:User {id: $userId})
		WHERE ` + liveCapture + `
		RETURN capture
		ORDER BY capture.created DESC
		SKIP $start LIMIT $count`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
		"start":  start,
		"count":  count,
	})
	if err != nil {
		return nil, err
	}
	return captureList(records)
}

// GetAllSince returns live captures created at or after since (epoch ms),
// newest first, capped at 50.
func (r *Repository) GetAllSince(ctx context.Context, owner urn.URN, since int64) ([]Capture, error) {
	query := `
		MATCH (capture:Capture)<-[:CREATED]-(u:User {id: $userId})
		WHERE capture.created >= $since AND ` + liveCapture + `
		RETURN capture
		ORDER BY capture.created DESC
		LIMIT 50`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
		"since":  since,
	})
	if err != nil {
		return nil, err
	}
	return captureList(records)
}

// GetRandomCapture returns one uniformly random live capture.
func (r *Repository) GetRandomCapture(ctx context.Context, owner urn.URN) (*Capture, error) {
	query := `
		MATCH (capture:Capture)<-[:CREATED]-(u:User {id: $userId})
		WHERE ` + liveCapture + `
		RETURN capture, rand() AS number
		ORDER BY number
		LIMIT 1`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return singleCapture(records, owner.Raw())
}

// GetCapturesRelatedTo returns the live captures connected to the given
// node by any relationship. The node's label comes from its URN kind, never
// from user input.
func (r *Repository) GetCapturesRelatedTo(ctx context.Context, owner urn.URN, node urn.URN) ([]Capture, error) {
	query := fmt.Sprintf(`
		MATCH (other:%s {id: $nodeId})-[]-(capture:Capture)<-[:CREATED]-(u:User {id: $userId})
		WHERE `+liveCapture+`
		RETURN capture`, node.Kind().Label())
	records, err := r.q.Read(ctx, query, map[string]any{
		"nodeId": node.Raw(),
		"userId": owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return captureList(records)
}

// GetUntypedNode fetches a node of any kind by its URN, scoped to owner.
func (r *Repository) GetUntypedNode(ctx context.Context, owner urn.URN, node urn.URN) (*Entity, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s {id: $nodeId, owner: $userId})
		WHERE n.archived IS NULL OR n.archived = false
		RETURN n`, node.Kind().Label())
	records, err := r.q.Read(ctx, query, map[string]any{
		"nodeId": node.Raw(),
		"userId": owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFound(node.Raw())
	}
	n, ok := nodeFromRecord(records[0], "n")
	if !ok {
		return nil, errors.NewNotFound(node.Raw())
	}
	entity := entityFromNode(n)
	return &entity, nil
}

func singleCapture(records []*neo4j.Record, id string) (*Capture, error) {
	if len(records) == 0 {
		return nil, errors.NewNotFound(id)
	}
	node, ok := nodeFromRecord(records[0], "capture")
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	capture := captureFromNode(node)
	return &capture, nil
}

func captureList(records []*neo4j.Record) ([]Capture, error) {
	captures := make([]Capture, 0, len(records))
	for _, record := range records {
		node, ok := nodeFromRecord(record, "capture")
		if !ok {
			continue
		}
		captures = append(captures, captureFromNode(node))
	}
	return captures, nil
}
