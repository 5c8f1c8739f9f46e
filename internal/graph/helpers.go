package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func nodeFromRecord(record *neo4j.Record, key string) (neo4j.Node, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return neo4j.Node{}, false
	}
	node, ok := val.(neo4j.Node)
	return node, ok
}

func stringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func stringProp(node neo4j.Node, key string) string {
	if val, ok := node.Props[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func int64Prop(node neo4j.Node, key string) int64 {
	val, ok := node.Props[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func boolProp(node neo4j.Node, key string) bool {
	if val, ok := node.Props[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func nodeLabel(node neo4j.Node) string {
	if len(node.Labels) > 0 {
		return node.Labels[0]
	}
	return ""
}

// displayName resolves the human-readable text for an arbitrary node, in
// the same precedence the presentation layer uses.
func displayName(node neo4j.Node) string {
	for _, key := range []string{"body", "name", "title", "url"} {
		if v := stringProp(node, key); v != "" {
			return v
		}
	}
	return ""
}

func captureFromNode(node neo4j.Node) Capture {
	return Capture{
		ID:        stringProp(node, "id"),
		Body:      stringProp(node, "body"),
		PlainText: stringProp(node, "plainText"),
		Created:   int64Prop(node, "created"),
		Owner:     stringProp(node, "owner"),
		Archived:  boolProp(node, "archived"),
	}
}

func sessionFromNode(node neo4j.Node) Session {
	return Session{
		ID:      stringProp(node, "id"),
		Title:   stringProp(node, "title"),
		Created: int64Prop(node, "created"),
		Owner:   stringProp(node, "owner"),
	}
}

func tagFromNode(node neo4j.Node) Tag {
	return Tag{
		ID:      stringProp(node, "id"),
		Name:    stringProp(node, "name"),
		Owner:   stringProp(node, "owner"),
		Created: int64Prop(node, "created"),
	}
}

func noteFromProps(node neo4j.Node) *Note {
	return &Note{
		ID:           stringProp(node, "id"),
		Title:        stringProp(node, "title"),
		Created:      int64Prop(node, "created"),
		LastModified: int64Prop(node, "lastModified"),
		Owner:        stringProp(node, "owner"),
	}
}

func entityFromNode(node neo4j.Node) Entity {
	return Entity{
		ID:      stringProp(node, "id"),
		Label:   nodeLabel(node),
		Name:    displayName(node),
		Created: int64Prop(node, "created"),
	}
}
