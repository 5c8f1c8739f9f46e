package graph

import (
	"context"
	"fmt"

	"tangle/internal/urn"
)

// ============================================================================
// Link Operations
// ============================================================================

// UpsertLink returns the single Link node for (owner, url), creating it
// when absent, and connects the parent node to it. Same MERGE guards as
// tags: no duplicate nodes or edges under concurrent calls.
func (r *Repository) UpsertLink(ctx context.Context, owner urn.URN, url string, parent urn.URN) (*Entity, error) {
	linkURN := urn.NewLink()

	query := fmt.Sprintf(`
		MERGE (link:Link {url: $url, owner: $userId})
		ON CREATE SET link.id = $linkUrn, link.created = timestamp()
		WITH link
		MATCH (parent:%s {id: $parentId, owner: $userId})
		MERGE (parent)-[:LINKS_TO]->(link)
		RETURN link`, parent.Kind().Label())

	records, err := r.q.Write(ctx, query, map[string]any{
		"url":      url,
		"userId":   owner.Raw(),
		"linkUrn":  linkURN.Raw(),
		"parentId": parent.Raw(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	node, ok := nodeFromRecord(records[0], "link")
	if !ok {
		return nil, nil
	}
	entity := entityFromNode(node)
	return &entity, nil
}
