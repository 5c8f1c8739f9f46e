// Package urn implements the namespaced identifier scheme used for every
// node in the graph. Identifiers look like "urn:hex:<kind>:<payload>",
// except imported Evernote notes, whose identifier is a deterministic
// composite of owner, title and creation time so a re-import of the same
// document can be detected without a lookup index.
package urn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"tangle/pkg/errors"
)

const base = "urn:hex"

// Kind is the closed set of node kinds an identifier can address. The kind
// determines both the parsing rule and the node label used in queries, so
// label names never come from user input.
type Kind string

const (
	KindUser         Kind = "user"
	KindCapture      Kind = "capture"
	KindEntity       Kind = "entity"
	KindTag          Kind = "tag"
	KindSession      Kind = "session"
	KindLink         Kind = "link"
	KindEvernoteNote Kind = "evernoteNote"
)

var labels = map[Kind]string{
	KindUser:         "User",
	KindCapture:      "Capture",
	KindEntity:       "Entity",
	KindTag:          "Tag",
	KindSession:      "Session",
	KindLink:         "Link",
	KindEvernoteNote: "EvernoteNote",
}

// Label returns the graph node label for this kind.
func (k Kind) Label() string {
	return labels[k]
}

// URN is an opaque, typed node identifier.
type URN struct {
	kind Kind
	raw  string
}

// New builds a URN of the given kind around an existing payload.
func New(kind Kind, payload string) URN {
	if kind == KindEvernoteNote {
		// Evernote note payloads are already the full composite identifier.
		return URN{kind: kind, raw: payload}
	}
	return URN{kind: kind, raw: fmt.Sprintf("%s:%s:%s", base, kind, payload)}
}

// NewUser builds a user URN for an externally issued account id.
func NewUser(id string) URN { return New(KindUser, id) }

// NewCapture mints a fresh random capture URN.
func NewCapture() URN { return New(KindCapture, uuid.NewString()) }

// NewSession mints a fresh random session URN.
func NewSession() URN { return New(KindSession, uuid.NewString()) }

// NewTag mints a fresh random tag URN.
func NewTag() URN { return New(KindTag, uuid.NewString()) }

// NewEntity mints a fresh random entity URN.
func NewEntity() URN { return New(KindEntity, uuid.NewString()) }

// NewLink mints a fresh random link URN.
func NewLink() URN { return New(KindLink, uuid.NewString()) }

// NewEvernoteNote derives the deterministic composite identifier for an
// imported note. Importing the same document twice yields the same URN.
func NewEvernoteNote(owner URN, title string, createdMs int64) URN {
	raw := owner.Raw() + ";" + title + ";" + strconv.FormatInt(createdMs, 10)
	return URN{kind: KindEvernoteNote, raw: raw}
}

// Parse classifies a raw identifier. It fails with ErrMalformedURN when the
// namespace prefix, segment count, or kind segment is wrong.
func Parse(raw string) (URN, error) {
	if raw == "" {
		return URN{}, errors.NewMalformedURN(raw)
	}

	// Composite note identifiers carry no urn prefix; they are
	// "<ownerURN>;<title>;<createdMs>".
	if strings.Contains(raw, ";") {
		parts := strings.Split(raw, ";")
		if len(parts) != 3 {
			return URN{}, errors.NewMalformedURN(raw)
		}
		if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
			return URN{}, errors.NewMalformedURN(raw)
		}
		return URN{kind: KindEvernoteNote, raw: raw}, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 4 || parts[0] != "urn" || parts[1] != "hex" {
		return URN{}, errors.NewMalformedURN(raw)
	}
	kind := Kind(parts[2])
	if _, ok := labels[kind]; !ok || kind == KindEvernoteNote {
		return URN{}, errors.NewMalformedURN(raw)
	}
	if parts[3] == "" {
		return URN{}, errors.NewMalformedURN(raw)
	}
	return URN{kind: kind, raw: raw}, nil
}

// Kind returns the identifier's kind.
func (u URN) Kind() Kind { return u.kind }

// Raw returns the identifier as stored on nodes.
func (u URN) Raw() string { return u.raw }

// IsZero reports whether the URN is the empty value.
func (u URN) IsZero() bool { return u.raw == "" }

func (u URN) String() string { return u.raw }
