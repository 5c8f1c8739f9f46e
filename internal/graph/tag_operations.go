package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"tangle/internal/urn"
)

// ============================================================================
// Tag Operations
// ============================================================================

// UpsertTag returns the single Tag node for (owner, name), creating it when
// absent, and links the parent node to it with a TAGGED_WITH edge. Both the
// node and the edge are guarded by MERGE, so concurrent upserts for the same
// name cannot duplicate either: re-linking an already linked pair is a
// store-level no-op.
func (r *Repository) UpsertTag(ctx context.Context, owner urn.URN, name string, parent urn.URN) (*Tag, error) {
	tagURN := urn.NewTag()

	query := fmt.Sprintf(`
		MERGE (tag:Tag {name: $name, owner: $userId})
		ON CREATE SET tag.id = $tagUrn, tag.created = timestamp()
		WITH tag
		MATCH (parent:%s {id: $parentId, owner: $userId})
		MERGE (parent)-[:TAGGED_WITH]->(tag)
		RETURN tag`, parent.Kind().Label())

	records, err := r.q.Write(ctx, query, map[string]any{
		"name":     name,
		"userId":   owner.Raw(),
		"tagUrn":   tagURN.Raw(),
		"parentId": parent.Raw(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		// The MERGE half still ran; a missing parent means the tag exists
		// but nothing was linked. Surface the fetched tag regardless so the
		// caller sees the canonical node.
		return r.getTagByName(ctx, owner, name)
	}

	node, ok := nodeFromRecord(records[0], "tag")
	if !ok {
		return r.getTagByName(ctx, owner, name)
	}
	tag := tagFromNode(node)

	r.logger.Debug("upserted tag",
		zap.String("name", name),
		zap.String("parent", parent.Raw()),
	)
	return &tag, nil
}

// GetTags returns the tags linked to the given source node.
func (r *Repository) GetTags(ctx context.Context, owner urn.URN, src urn.URN) ([]Tag, error) {
	query := fmt.Sprintf(`
		MATCH (tag:Tag {owner: $userId})<-[:TAGGED_WITH]-(src:%s {id: $srcId})
		RETURN tag`, src.Kind().Label())
	records, err := r.q.Read(ctx, query, map[string]any{
		"userId": owner.Raw(),
		"srcId":  src.Raw(),
	})
	if err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, len(records))
	for _, record := range records {
		if node, ok := nodeFromRecord(record, "tag"); ok {
			tags = append(tags, tagFromNode(node))
		}
	}
	return tags, nil
}

func (r *Repository) getTagByName(ctx context.Context, owner urn.URN, name string) (*Tag, error) {
	query := `
		MATCH (tag:Tag {name: $name, owner: $userId})
		RETURN tag`
	records, err := r.q.Read(ctx, query, map[string]any{
		"name":   name,
		"userId": owner.Raw(),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	node, ok := nodeFromRecord(records[0], "tag")
	if !ok {
		return nil, nil
	}
	tag := tagFromNode(node)
	return &tag, nil
}
