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

func TestExpandDeduplicatesNodesAndEdges(t *testing.T) {
	c1 := capture("urn:hex:capture:a", 100)
	c2 := capture("urn:hex:capture:b", 200)
	tag := &graph.Entity{ID: "urn:hex:tag:t", Label: "Tag", Name: "shared"}

	// both captures link to the same tag; the c1 row appears twice, as the
	// store returns one row per relationship match
	repo := &fakeRepo{neighbors: []graph.Neighbor{
		{Capture: c1, Other: tag, RelType: "TAGGED_WITH", SourceID: c1.ID, TargetID: tag.ID},
		{Capture: c1, Other: tag, RelType: "TAGGED_WITH", SourceID: c1.ID, TargetID: tag.ID},
		{Capture: c2, Other: tag, RelType: "TAGGED_WITH", SourceID: c2.ID, TargetID: tag.ID},
	}}
	engine := newEngine(repo, time.Now())

	results, err := engine.expand(context.Background(), urn.NewUser("u1"), []string{c1.ID, c2.ID}, "", SortNone, "")
	require.NoError(t, err)

	// two seed captures plus one tag node, exactly once each
	require.Len(t, results.Nodes, 3)
	require.Len(t, results.Edges, 2)

	var tagNode *GraphNode
	for i := range results.Nodes {
		if results.Nodes[i].ID == tag.ID {
			tagNode = &results.Nodes[i]
		}
	}
	require.NotNil(t, tagNode)
	assert.Equal(t, "Tag", tagNode.Kind)
	assert.Equal(t, "shared", tagNode.Label)
	assert.Equal(t, 2, tagNode.Degree)
}

func TestExpandSortPolicies(t *testing.T) {
	c1 := capture("urn:hex:capture:a", 100)
	c2 := capture("urn:hex:capture:b", 300)
	c3 := capture("urn:hex:capture:c", 200)
	repo := &fakeRepo{neighbors: bareNeighbors(c1, c2, c3)}
	engine := newEngine(repo, time.Now())
	ctx := context.Background()
	owner := urn.NewUser("u1")
	seeds := []string{c1.ID, c2.ID, c3.ID}

	asc, err := engine.expand(ctx, owner, seeds, "", SortAsc, "")
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c3.ID, c2.ID}, nodeIDs(asc))

	desc, err := engine.expand(ctx, owner, seeds, "", SortDesc, "")
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID, c3.ID, c1.ID}, nodeIDs(desc))

	// NONE preserves input order
	none, err := engine.expand(ctx, owner, seeds, "", SortNone, "")
	require.NoError(t, err)
	assert.Equal(t, seeds, nodeIDs(none))
}

func TestExpandCollapsesDuplicateSeeds(t *testing.T) {
	// related-capture queries return one row per relationship, so the same
	// capture can arrive more than once in the seed list
	c1 := capture("urn:hex:capture:a", 100)
	c2 := capture("urn:hex:capture:b", 200)
	repo := &fakeRepo{neighbors: bareNeighbors(c1, c2)}
	engine := newEngine(repo, time.Now())

	results, err := engine.expand(context.Background(), urn.NewUser("u1"),
		[]string{c1.ID, c2.ID, c1.ID}, "", SortNone, "")
	require.NoError(t, err)

	assert.Equal(t, []string{c1.ID, c2.ID}, nodeIDs(results))
}

func TestExpandMissingSeedFails(t *testing.T) {
	c1 := capture("urn:hex:capture:a", 100)
	repo := &fakeRepo{neighbors: bareNeighbors(c1)}
	engine := newEngine(repo, time.Now())

	_, err := engine.expand(context.Background(), urn.NewUser("u1"),
		[]string{c1.ID, "urn:hex:capture:gone"}, "", SortNone, "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestExpandEmptySeedsSkipsStore(t *testing.T) {
	repo := &fakeRepo{}
	engine := newEngine(repo, time.Now())

	results, err := engine.expand(context.Background(), urn.NewUser("u1"), nil, "", SortDesc, "Captured today")
	require.NoError(t, err)
	assert.Empty(t, results.Nodes)
	assert.Empty(t, results.Edges)
	assert.Equal(t, "Captured today", results.Message)
	assert.Empty(t, repo.calls)
}

func TestExpandCaptureNeighborNotDuplicated(t *testing.T) {
	// two seed captures connected to each other must not be emitted twice
	c1 := capture("urn:hex:capture:a", 100)
	c2 := capture("urn:hex:capture:b", 200)
	c1Entity := &graph.Entity{ID: c1.ID, Label: "Capture", Name: c1.Body}
	c2Entity := &graph.Entity{ID: c2.ID, Label: "Capture", Name: c2.Body}

	repo := &fakeRepo{neighbors: []graph.Neighbor{
		{Capture: c1, Other: c2Entity, RelType: "RELATES_TO", SourceID: c1.ID, TargetID: c2.ID},
		{Capture: c2, Other: c1Entity, RelType: "RELATES_TO", SourceID: c1.ID, TargetID: c2.ID},
	}}
	engine := newEngine(repo, time.Now())

	results, err := engine.expand(context.Background(), urn.NewUser("u1"),
		[]string{c1.ID, c2.ID}, "", SortAsc, "")
	require.NoError(t, err)

	assert.Equal(t, []string{c1.ID, c2.ID}, nodeIDs(results))
	require.Len(t, results.Edges, 1)
	assert.Equal(t, 1, results.Nodes[0].Degree)
}

func nodeIDs(results *SurfaceResults) []string {
	ids := make([]string, 0, len(results.Nodes))
	for _, n := range results.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
