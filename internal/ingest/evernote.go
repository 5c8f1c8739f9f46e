// Package ingest imports exported Evernote HTML documents: it parses the
// export's metadata, derives the deterministic note identifier, chunks the
// body, and creates one capture per chunk under the note.
package ingest

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"tangle/internal/chunk"
	"tangle/internal/graph"
	"tangle/internal/urn"
	"tangle/pkg/errors"
	"tangle/pkg/logger"
)

// Repo is the slice of the graph repository the importer consumes.
type Repo interface {
	GetNote(ctx context.Context, owner, id urn.URN) (*graph.Note, error)
	CreateNote(ctx context.Context, owner, id urn.URN, title string, created, lastModified int64) (*graph.Note, error)
	CreateCapture(ctx context.Context, owner urn.URN, plainText, html string, parent urn.URN) (*graph.Capture, error)
}

// ExportedNote is the parsed metadata and body of an Evernote HTML export.
type ExportedNote struct {
	Title        string
	Created      int64 // epoch ms
	LastModified int64 // epoch ms
	Body         string
}

// Importer turns Evernote HTML exports into note and capture nodes.
type Importer struct {
	repo    Repo
	chunker *chunk.Chunker
	logger  *zap.Logger
}

// NewImporter creates an importer that chunks note bodies with chunker.
func NewImporter(repo Repo, chunker *chunk.Chunker) *Importer {
	return &Importer{
		repo:    repo,
		chunker: chunker,
		logger:  logger.Named("ingest"),
	}
}

// ImportNote imports one exported document for owner. The note identifier
// is derived from (owner, title, created), so importing the same document
// again is detected and skipped; the bool reports whether anything was
// created. Chunk captures are created concurrently: they are independent
// writes under the same parent.
func (i *Importer) ImportNote(ctx context.Context, owner urn.URN, data []byte) (*graph.Note, bool, error) {
	exported, err := ParseEvernoteHTML(data)
	if err != nil {
		return nil, false, err
	}

	noteURN := urn.NewEvernoteNote(owner, exported.Title, exported.Created)

	existing, err := i.repo.GetNote(ctx, owner, noteURN)
	if err == nil {
		i.logger.Info("note already imported, skipping",
			zap.String("id", existing.ID),
		)
		return existing, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, err
	}

	note, err := i.repo.CreateNote(ctx, owner, noteURN, exported.Title, exported.Created, exported.LastModified)
	if err != nil {
		return nil, false, err
	}

	chunks, err := i.chunker.Split(exported.Body)
	if err != nil {
		return nil, false, err
	}

	// Structural chunking keeps whitespace-only text nodes (the newline
	// between two block elements) so chunk spans stay gapless; they carry no
	// content and become no capture.
	type pending struct {
		text string
		html string
	}
	captures := make([]pending, 0, len(chunks))
	for _, c := range chunks {
		if text := plainText(c.HTML); text != "" {
			captures = append(captures, pending{text: text, html: c.HTML})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range captures {
		p := p
		g.Go(func() error {
			_, err := i.repo.CreateCapture(gctx, owner, p.text, p.html, noteURN)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	i.logger.Info("imported note",
		zap.String("id", note.ID),
		zap.Int("captures", len(captures)),
	)
	return note, true, nil
}

// ParseEvernoteHTML extracts title, timestamps, and body markup from an
// Evernote HTML export.
func ParseEvernoteHTML(data []byte) (*ExportedNote, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	created := parseExportTime(metaContent(doc, "created"))
	lastModified := parseExportTime(metaContent(doc, "updated"))
	if created == 0 {
		created = time.Now().UnixMilli()
	}
	if lastModified == 0 {
		lastModified = created
	}

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, err
	}

	return &ExportedNote{
		Title:        title,
		Created:      created,
		LastModified: lastModified,
		Body:         strings.TrimSpace(body),
	}, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return content
}

// exportTimeLayouts are the timestamp shapes seen in Evernote exports.
var exportTimeLayouts = []string{
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
}

func parseExportTime(value string) int64 {
	if value == "" {
		return 0
	}
	for _, layout := range exportTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// plainText flattens a chunk's markup to its visible text.
func plainText(chunkHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(chunkHTML))
	if err != nil {
		return chunkHTML
	}
	return strings.TrimSpace(doc.Text())
}
