package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tangle/internal/chunk"
	"tangle/internal/graph"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

const sampleExport = `<html>
<head>
<meta name="created" content="20180629T120000Z">
<meta name="updated" content="20180630T080000Z">
<title>Meeting notes</title>
</head>
<body>
<div><p>First point about the roadmap.</p></div>
<div><p>Second point about hiring.</p></div>
</body>
</html>`

type fakeRepo struct {
	mu       sync.Mutex
	notes    map[string]*graph.Note
	captures []graph.Capture
	parents  []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{notes: map[string]*graph.Note{}}
}

func (f *fakeRepo) GetNote(_ context.Context, _, id urn.URN) (*graph.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if note, ok := f.notes[id.Raw()]; ok {
		return note, nil
	}
	return nil, errors.NewNotFound(id.Raw())
}

func (f *fakeRepo) CreateNote(_ context.Context, owner, id urn.URN, title string, created, lastModified int64) (*graph.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note := &graph.Note{ID: id.Raw(), Title: title, Created: created, LastModified: lastModified, Owner: owner.Raw()}
	f.notes[id.Raw()] = note
	return note, nil
}

func (f *fakeRepo) CreateCapture(_ context.Context, owner urn.URN, plainText, html string, parent urn.URN) (*graph.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	capture := graph.Capture{
		ID:        urn.NewCapture().Raw(),
		Body:      html,
		PlainText: plainText,
		Owner:     owner.Raw(),
	}
	f.captures = append(f.captures, capture)
	f.parents = append(f.parents, parent.Raw())
	return &capture, nil
}

func TestParseEvernoteHTML(t *testing.T) {
	exported, err := ParseEvernoteHTML([]byte(sampleExport))
	require.NoError(t, err)

	assert.Equal(t, "Meeting notes", exported.Title)
	assert.Equal(t, int64(1530273600000), exported.Created)      // 2018-06-29T12:00:00Z
	assert.Equal(t, int64(1530345600000), exported.LastModified) // 2018-06-30T08:00:00Z
	assert.Contains(t, exported.Body, "First point about the roadmap.")
}

func TestImportNoteCreatesChunkCaptures(t *testing.T) {
	repo := newFakeRepo()
	importer := NewImporter(repo, chunk.New(10))

	owner := urn.NewUser("u1")
	note, imported, err := importer.ImportNote(context.Background(), owner, []byte(sampleExport))
	require.NoError(t, err)
	assert.True(t, imported)

	// the note identifier is the deterministic composite key
	assert.Equal(t, urn.NewEvernoteNote(owner, "Meeting notes", 1530273600000).Raw(), note.ID)

	require.NotEmpty(t, repo.captures)
	for _, parent := range repo.parents {
		assert.Equal(t, note.ID, parent)
	}
	for _, capture := range repo.captures {
		assert.NotEmpty(t, capture.PlainText)
		assert.NotEmpty(t, capture.Body)
	}
}

func TestImportNoteSkipsWhitespaceChunks(t *testing.T) {
	repo := newFakeRepo()
	importer := NewImporter(repo, chunk.New(10))

	// The newline between the two divs chunks as a whitespace-only text
	// node; only the two content chunks become captures.
	_, imported, err := importer.ImportNote(context.Background(), urn.NewUser("u1"), []byte(sampleExport))
	require.NoError(t, err)
	require.True(t, imported)

	require.Len(t, repo.captures, 2)
	texts := []string{repo.captures[0].PlainText, repo.captures[1].PlainText}
	assert.ElementsMatch(t, []string{
		"First point about the roadmap.",
		"Second point about hiring.",
	}, texts)
}

func TestImportNoteDetectsReimport(t *testing.T) {
	repo := newFakeRepo()
	importer := NewImporter(repo, chunk.New(10))
	owner := urn.NewUser("u1")
	ctx := context.Background()

	_, imported, err := importer.ImportNote(ctx, owner, []byte(sampleExport))
	require.NoError(t, err)
	require.True(t, imported)
	firstCount := len(repo.captures)

	// importing the same document again creates nothing
	_, imported, err = importer.ImportNote(ctx, owner, []byte(sampleExport))
	require.NoError(t, err)
	assert.False(t, imported)
	assert.Len(t, repo.captures, firstCount)
}
