package surface

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tangle/internal/graph"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeRepo struct {
	capture   *graph.Capture
	recent    []graph.Capture
	since     []graph.Capture
	random    *graph.Capture
	related   []graph.Capture
	entity    *graph.Entity
	entityErr error
	neighbors []graph.Neighbor

	calls     []string
	lastSince int64
}

func (f *fakeRepo) GetCapture(_ context.Context, _, id urn.URN) (*graph.Capture, error) {
	f.calls = append(f.calls, "GetCapture")
	if f.capture == nil {
		return nil, errors.NewNotFound(id.Raw())
	}
	return f.capture, nil
}

func (f *fakeRepo) GetMostRecent(_ context.Context, _ urn.URN, _, _ int) ([]graph.Capture, error) {
	f.calls = append(f.calls, "GetMostRecent")
	return f.recent, nil
}

func (f *fakeRepo) GetAllSince(_ context.Context, _ urn.URN, since int64) ([]graph.Capture, error) {
	f.calls = append(f.calls, "GetAllSince")
	f.lastSince = since
	return f.since, nil
}

func (f *fakeRepo) GetRandomCapture(_ context.Context, owner urn.URN) (*graph.Capture, error) {
	f.calls = append(f.calls, "GetRandomCapture")
	if f.random == nil {
		return nil, errors.NewNotFound(owner.Raw())
	}
	return f.random, nil
}

func (f *fakeRepo) GetCapturesRelatedTo(_ context.Context, _, _ urn.URN) ([]graph.Capture, error) {
	f.calls = append(f.calls, "GetCapturesRelatedTo")
	return f.related, nil
}

func (f *fakeRepo) GetUntypedNode(_ context.Context, _, node urn.URN) (*graph.Entity, error) {
	f.calls = append(f.calls, "GetUntypedNode")
	if f.entityErr != nil {
		return nil, f.entityErr
	}
	if f.entity == nil {
		return nil, errors.NewNotFound(node.Raw())
	}
	return f.entity, nil
}

func (f *fakeRepo) GetConnectedNodes(_ context.Context, _ urn.URN, _ []string) ([]graph.Neighbor, error) {
	f.calls = append(f.calls, "GetConnectedNodes")
	return f.neighbors, nil
}

func newEngine(repo *fakeRepo, now time.Time) *Engine {
	e := NewEngine(repo)
	e.now = func() time.Time { return now }
	return e
}

func capture(id string, created int64) graph.Capture {
	return graph.Capture{ID: id, Body: "body of " + id, Created: created}
}

// bareNeighbors wraps captures as neighbor rows with no connected nodes.
func bareNeighbors(captures ...graph.Capture) []graph.Neighbor {
	rows := make([]graph.Neighbor, 0, len(captures))
	for _, c := range captures {
		rows = append(rows, graph.Neighbor{Capture: c})
	}
	return rows
}

// ============================================================================
// Use-Case Entry
// ============================================================================

func TestGetAllByUseCaseUnknown(t *testing.T) {
	repo := &fakeRepo{}
	engine := newEngine(repo, time.Now())

	_, err := engine.GetAllByUseCase(context.Background(), urn.NewUser("u1"), "BOGUS", 0)
	require.Error(t, err)
	assert.True(t, errors.IsNotImplemented(err))
	// no store round-trip happened
	assert.Empty(t, repo.calls)
}

func TestGetAllByUseCaseCapturedToday(t *testing.T) {
	c1 := capture("urn:hex:capture:a", 3000)
	c2 := capture("urn:hex:capture:b", 1000)
	repo := &fakeRepo{
		since:     []graph.Capture{c1, c2},
		neighbors: bareNeighbors(c1, c2),
	}
	now := time.Date(2018, 6, 29, 15, 30, 0, 0, time.UTC)
	engine := newEngine(repo, now)

	results, err := engine.GetAllByUseCase(context.Background(), urn.NewUser("u1"), UseCaseCapturedToday, 0)
	require.NoError(t, err)

	wantBoundary := time.Date(2018, 6, 29, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, wantBoundary, repo.lastSince)

	assert.Equal(t, "Captured today", results.Message)
	require.Len(t, results.Nodes, 2)
	// newest first
	assert.Equal(t, c1.ID, results.Nodes[0].ID)
	assert.Equal(t, c2.ID, results.Nodes[1].ID)
}

func TestCapturedTodayOffsetShiftsBoundary(t *testing.T) {
	repo := &fakeRepo{}
	// 01:30 UTC; at UTC-5 the local day started at 00:00 local = 05:00 UTC
	// the previous day.
	now := time.Date(2018, 6, 29, 1, 30, 0, 0, time.UTC)
	engine := newEngine(repo, now)

	_, err := engine.GetAllByUseCase(context.Background(), urn.NewUser("u1"), UseCaseCapturedToday, -5)
	require.NoError(t, err)

	wantBoundary := time.Date(2018, 6, 28, 5, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, wantBoundary, repo.lastSince)
}

func TestGetAllByUseCaseRandom(t *testing.T) {
	c := capture("urn:hex:capture:r", 42)
	repo := &fakeRepo{
		random:    &c,
		neighbors: bareNeighbors(c),
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetAllByUseCase(context.Background(), urn.NewUser("u1"), UseCaseRandom, 0)
	require.NoError(t, err)
	assert.Equal(t, "Focusing on the random capture below", results.Message)
	require.Len(t, results.Nodes, 1)
	assert.Equal(t, c.ID, results.Nodes[0].ID)
}

// ============================================================================
// Node Entry
// ============================================================================

func TestGetNodeMalformed(t *testing.T) {
	engine := newEngine(&fakeRepo{}, time.Now())
	_, err := engine.GetNode(context.Background(), urn.NewUser("u1"), "not-a-urn")
	require.Error(t, err)
	assert.True(t, errors.IsMalformedURN(err))
}

func TestGetNodeCapture(t *testing.T) {
	c := capture("urn:hex:capture:c1", 10)
	repo := &fakeRepo{
		capture:   &c,
		neighbors: bareNeighbors(c),
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetNode(context.Background(), urn.NewUser("u1"), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Focusing on the below capture", results.Message)
	require.Len(t, results.Nodes, 1)
}

func TestGetNodeCaptureNotFound(t *testing.T) {
	engine := newEngine(&fakeRepo{}, time.Now())
	_, err := engine.GetNode(context.Background(), urn.NewUser("u1"), "urn:hex:capture:missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetNodeSession(t *testing.T) {
	sessionID := "urn:hex:session:s1"
	c1 := capture("urn:hex:capture:a", 2000)
	c2 := capture("urn:hex:capture:b", 1000)
	session := &graph.Entity{ID: sessionID, Label: "Session", Name: "Reading list"}
	repo := &fakeRepo{
		related: []graph.Capture{c1, c2},
		neighbors: []graph.Neighbor{
			{Capture: c1, Other: session, RelType: "INCLUDES", SourceID: sessionID, TargetID: c1.ID},
			{Capture: c2, Other: session, RelType: "INCLUDES", SourceID: sessionID, TargetID: c2.ID},
		},
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetNode(context.Background(), urn.NewUser("u1"), sessionID)
	require.NoError(t, err)

	// sessions render oldest first with no caption
	assert.Empty(t, results.Message)
	require.Len(t, results.Nodes, 2)
	assert.Equal(t, c2.ID, results.Nodes[0].ID)
	assert.Equal(t, c1.ID, results.Nodes[1].ID)

	// the focus session is not rendered again as a leaf
	for _, node := range results.Nodes {
		assert.NotEqual(t, sessionID, node.ID)
	}
	assert.Empty(t, results.Edges)

	// but it is attached as a parent container
	require.Len(t, results.Nodes[0].Parents, 1)
	assert.Equal(t, "Reading list", results.Nodes[0].Parents[0].Label)
}

func TestGetNodeTagResolvesName(t *testing.T) {
	tagID := "urn:hex:tag:t1"
	c := capture("urn:hex:capture:a", 100)
	tag := &graph.Entity{ID: tagID, Label: "Tag", Name: "golang"}
	repo := &fakeRepo{
		entity:  tag,
		related: []graph.Capture{c},
		neighbors: []graph.Neighbor{
			{Capture: c, Other: tag, RelType: "TAGGED_WITH", SourceID: c.ID, TargetID: tagID},
		},
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetNode(context.Background(), urn.NewUser("u1"), tagID)
	require.NoError(t, err)
	assert.Equal(t, "Focusing on 'golang'", results.Message)
}

func TestGetNodeTagDoublyLinkedCaptureAppearsOnce(t *testing.T) {
	// a capture reaching the focus tag through two relationships comes back
	// as two related-capture rows; it must still render as a single node
	tagID := "urn:hex:tag:t1"
	c := capture("urn:hex:capture:a", 100)
	tag := &graph.Entity{ID: tagID, Label: "Tag", Name: "golang"}
	repo := &fakeRepo{
		entity:  tag,
		related: []graph.Capture{c, c},
		neighbors: []graph.Neighbor{
			{Capture: c, Other: tag, RelType: "TAGGED_WITH", SourceID: c.ID, TargetID: tagID},
			{Capture: c, Other: tag, RelType: "LINKS_TO", SourceID: c.ID, TargetID: tagID},
		},
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetNode(context.Background(), urn.NewUser("u1"), tagID)
	require.NoError(t, err)

	occurrences := 0
	for _, node := range results.Nodes {
		if node.ID == c.ID {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
}

func TestGetNodeTagNameUnresolvable(t *testing.T) {
	tagID := "urn:hex:tag:t1"
	c := capture("urn:hex:capture:a", 100)
	repo := &fakeRepo{
		related:   []graph.Capture{c},
		neighbors: bareNeighbors(c),
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetNode(context.Background(), urn.NewUser("u1"), tagID)
	require.NoError(t, err)
	assert.Empty(t, results.Message)
}

// ============================================================================
// Recent Entry
// ============================================================================

func TestGetAllMostRecent(t *testing.T) {
	c1 := capture("urn:hex:capture:a", 300)
	c2 := capture("urn:hex:capture:b", 200)
	repo := &fakeRepo{
		recent:    []graph.Capture{c1, c2},
		neighbors: bareNeighbors(c1, c2),
	}
	engine := newEngine(repo, time.Now())

	results, err := engine.GetAllMostRecent(context.Background(), urn.NewUser("u1"), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "Most recent captures", results.Message)
	require.Len(t, results.Nodes, 2)
	assert.Equal(t, c1.ID, results.Nodes[0].ID)
}
