package graph

// ============================================================================
// Graph Types
// ============================================================================

// User is the root of ownership for every other node.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Created int64  `json:"created,omitempty"`
}

// Capture is the core content unit: rendered body plus its plain text.
// Created is epoch milliseconds. Archived captures stay in the store but
// are invisible to normal reads.
type Capture struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	PlainText string `json:"plainText"`
	Created   int64  `json:"created"`
	Owner     string `json:"owner"`
	Archived  bool   `json:"archived,omitempty"`
}

// Session is a named container of captures, linked via INCLUDES edges.
type Session struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Created int64  `json:"created"`
	Owner   string `json:"owner"`
}

// Tag is unique per (owner, name). Tags hang off content via TAGGED_WITH
// edges rather than a CREATED edge from the user.
type Tag struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Created int64  `json:"created"`
}

// Note is an imported document (Evernote export). Its identifier is a
// deterministic composite of owner, title and creation time.
type Note struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Created      int64  `json:"created"`
	LastModified int64  `json:"lastModified"`
	Owner        string `json:"owner"`
}

// Entity is a generic node reached by relationship traversal; its label
// comes from the identifier's namespace segment and its display name from
// whichever of body/name/title/url the node carries.
type Entity struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Name    string `json:"name"`
	Created int64  `json:"created,omitempty"`
}

// Neighbor is one row of a capture's one-hop neighborhood: the capture
// itself plus, when present, a connected node and the directed edge
// between them.
type Neighbor struct {
	Capture  Capture
	Other    *Entity
	RelType  string
	SourceID string
	TargetID string
}
