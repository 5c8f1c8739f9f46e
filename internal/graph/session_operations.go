package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// Session Operations
// ============================================================================

// CreateSession creates a session node owned by owner. Title is optional;
// untitled sessions carry no title property at all.
func (r *Repository) CreateSession(ctx context.Context, owner urn.URN, title string) (*Session, error) {
	sessionURN := urn.NewSession()

	titleFragment := ""
	params := map[string]any{
		"userId":     owner.Raw(),
		"sessionUrn": sessionURN.Raw(),
	}
	if title != "" {
		titleFragment = "title: $title,"
		params["title"] = title
	}

	query := `
		MATCH (u:User {id: $userId})
		CREATE (u)-[:CREATED]->(session:Session {
			id: $sessionUrn,
			` + titleFragment + `
			created: timestamp(),
			owner: $userId
		})
		RETURN session`

	records, err := r.q.Write(ctx, query, params)
	if err != nil {
		return nil, err
	}
	session, err := singleSession(records, sessionURN.Raw())
	if err != nil {
		return nil, err
	}

	r.logger.Debug("created session", zap.String("id", session.ID))
	return session, nil
}

// GetSession fetches a single session owned by owner.
func (r *Repository) GetSession(ctx context.Context, owner urn.URN, id urn.URN) (*Session, error) {
	query := `
		MATCH (session:Session {id: $sessionUrn})<-[:CREATED]-(u:User {id: $userId})
		RETURN session`
	records, err := r.q.Read(ctx, query, map[string]any{
		"sessionUrn": id.Raw(),
		"userId":     owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	return singleSession(records, id.Raw())
}

// EditSession sets or clears the session title. An empty title removes the
// property, matching the create behavior for untitled sessions.
func (r *Repository) EditSession(ctx context.Context, owner urn.URN, id urn.URN, title string) (*Session, error) {
	titleFragment := "REMOVE session.title"
	params := map[string]any{
		"sessionUrn": id.Raw(),
		"userId":     owner.Raw(),
	}
	if title != "" {
		titleFragment = "SET session.title = $title"
		params["title"] = title
	}

	query := `
		MATCH (session:Session {id: $sessionUrn})<-[:CREATED]-(u:User {id: $userId})
		` + titleFragment + `
		RETURN session`

	records, err := r.q.Write(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return singleSession(records, id.Raw())
}

// DeleteSession removes the session node and all of its relationships.
// Captures the session included stay in place. Deleting a session that is
// already gone is a no-op.
func (r *Repository) DeleteSession(ctx context.Context, owner urn.URN, id urn.URN) error {
	query := `
		MATCH (session:Session {id: $sessionUrn})<-[:CREATED]-(u:User {id: $userId})
		DETACH DELETE session`
	_, err := r.q.Write(ctx, query, map[string]any{
		"sessionUrn": id.Raw(),
		"userId":     owner.Raw(),
	})
	return err
}

// GetRecentSessions returns the owner's sessions, newest first.
func (r *Repository) GetRecentSessions(ctx context.Context, owner urn.URN, count int) ([]Session, error) {
	query := `
		MATCH (session:Session)<-[:CREATED]-(u:User {id: $userId})
		RETURN session
		ORDER BY session.created DESC
		LIMIT $count`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
		"count":  count,
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		if node, ok := nodeFromRecord(record, "session"); ok {
			sessions = append(sessions, sessionFromNode(node))
		}
	}
	return sessions, nil
}

// GetSessionsIncluding returns the sessions that include the given capture,
// oldest first. Used to attach parent containers to presented captures.
func (r *Repository) GetSessionsIncluding(ctx context.Context, owner urn.URN, capture urn.URN) ([]Session, error) {
	query := `
		MATCH (session:Session)-[:INCLUDES]->(capture:Capture {id: $captureId, owner: $userId})
		RETURN session
		ORDER BY session.created ASC`
	records, err := r.q.Read(ctx, query, map[string]any{
		"captureId": capture.Raw(),
		"userId":    owner.Raw(),
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		if node, ok := nodeFromRecord(record, "session"); ok {
			sessions = append(sessions, sessionFromNode(node))
		}
	}
	return sessions, nil
}

func singleSession(records []*neo4j.Record, id string) (*Session, error) {
	if len(records) == 0 {
		return nil, errors.NewNotFound(id)
	}
	node, ok := nodeFromRecord(records[0], "session")
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	session := sessionFromNode(node)
	return &session, nil
}
