package graph

import (
	"context"

	"tangle/internal/urn"
)

// ============================================================================
// Neighborhood Operations
// ============================================================================

// GetConnectedNodes returns the one-hop neighborhood of the given live
// captures: one row per (capture, relationship) pair, plus a bare row for
// captures with no relationships. The owning user node is not part of the
// neighborhood; ownership edges are plumbing, not content.
func (r *Repository) GetConnectedNodes(ctx context.Context, owner urn.URN, captureIDs []string) ([]Neighbor, error) {
	query := `
		MATCH (capture:Capture)<-[:CREATED]-(u:User {id: $userId})
		WHERE capture.id IN $captureIds AND ` + liveCapture + `
		OPTIONAL MATCH (capture)-[r]-(other)
		WHERE NOT other:User
			AND other.id IS NOT NULL
			AND (other.archived IS NULL OR other.archived = false)
		RETURN capture,
			type(r) AS relType,
			CASE WHEN r IS NULL THEN null
				WHEN startNode(r) = capture THEN capture.id
				ELSE other.id END AS sourceId,
			CASE WHEN r IS NULL THEN null
				WHEN startNode(r) = capture THEN other.id
				ELSE capture.id END AS targetId,
			other`
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId":     owner.Raw(),
		"captureIds": captureIDs,
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(records))
	for _, record := range records {
		captureNode, ok := nodeFromRecord(record, "capture")
		if !ok {
			continue
		}
		neighbor := Neighbor{Capture: captureFromNode(captureNode)}

		if otherNode, ok := nodeFromRecord(record, "other"); ok {
			entity := entityFromNode(otherNode)
			neighbor.Other = &entity
			neighbor.RelType = stringFromRecord(record, "relType")
			neighbor.SourceID = stringFromRecord(record, "sourceId")
			neighbor.TargetID = stringFromRecord(record, "targetId")
		}
		neighbors = append(neighbors, neighbor)
	}
	return neighbors, nil
}
