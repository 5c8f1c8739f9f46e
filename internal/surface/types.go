package surface

// ============================================================================
// Presentation Types
// ============================================================================

// SortOrder controls how seed captures are ordered for presentation.
type SortOrder string

const (
	// SortAsc orders seeds oldest first (chronological reading order).
	SortAsc SortOrder = "ASC"
	// SortDesc orders seeds newest first.
	SortDesc SortOrder = "DESC"
	// SortNone preserves the input order of the seeds.
	SortNone SortOrder = "NONE"
)

// GraphNode is one display node of a surfaced sub-graph.
type GraphNode struct {
	ID      string      `json:"id"`
	Kind    string      `json:"kind"`
	Label   string      `json:"label"`
	Degree  int         `json:"degree"`
	Parents []GraphNode `json:"parents,omitempty"`
}

// GraphEdge is one display edge between two surfaced nodes.
type GraphEdge struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Kind        string `json:"kind"`
}

// SurfaceResults is the display-ready result of an expansion: deduplicated
// nodes, the edges among them, and an optional caption.
type SurfaceResults struct {
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges"`
	Message string      `json:"message,omitempty"`
}
