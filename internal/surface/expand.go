package surface

import (
	"context"
	"sort"

	"tangle/internal/graph"
	"tangle/internal/urn"
	"tangle/pkg/errors"
)

// ============================================================================
// Expansion
// ============================================================================

const (
	captureKind = "Capture"
	sessionKind = "Session"
	includesRel = "INCLUDES"
)

type edgeKey struct {
	source, destination, kind string
}

// expand turns a seed set of capture identifiers into a connected,
// deduplicated sub-graph: the seed captures, their one-hop neighbors, and
// the edges among them. Seeds are positioned per order; exclude, when
// non-empty, is omitted from the result so a focus node is not also
// rendered as a leaf.
func (e *Engine) expand(ctx context.Context, owner urn.URN, seedIDs []string, exclude string, order SortOrder, message string) (*SurfaceResults, error) {
	results := &SurfaceResults{
		Nodes:   []GraphNode{},
		Edges:   []GraphEdge{},
		Message: message,
	}
	if len(seedIDs) == 0 {
		return results, nil
	}

	// Seed lists arrive with repeats when a capture reaches the focus node
	// through more than one relationship; nodes are keyed by id, so collapse
	// them here.
	seedIDs = dedupe(seedIDs)

	neighbors, err := e.repo.GetConnectedNodes(ctx, owner, seedIDs)
	if err != nil {
		return nil, err
	}

	captures := make(map[string]graph.Capture)
	parents := make(map[string][]GraphNode)
	others := make(map[string]GraphNode)
	otherOrder := []string{}
	edges := make(map[edgeKey]struct{})
	edgeList := []GraphEdge{}
	degree := make(map[string]int)

	for _, n := range neighbors {
		captures[n.Capture.ID] = n.Capture
		if n.Other == nil {
			continue
		}

		if n.RelType == includesRel && n.Other.Label == sessionKind {
			parents[n.Capture.ID] = append(parents[n.Capture.ID], GraphNode{
				ID:    n.Other.ID,
				Kind:  sessionKind,
				Label: n.Other.Name,
			})
		}

		if n.Other.ID != exclude {
			if _, seen := others[n.Other.ID]; !seen {
				others[n.Other.ID] = GraphNode{
					ID:    n.Other.ID,
					Kind:  n.Other.Label,
					Label: n.Other.Name,
				}
				otherOrder = append(otherOrder, n.Other.ID)
			}
		}

		if n.SourceID == exclude || n.TargetID == exclude {
			continue
		}
		key := edgeKey{source: n.SourceID, destination: n.TargetID, kind: n.RelType}
		if _, seen := edges[key]; !seen {
			edges[key] = struct{}{}
			edgeList = append(edgeList, GraphEdge{
				Source:      n.SourceID,
				Destination: n.TargetID,
				Kind:        n.RelType,
			})
			degree[n.SourceID]++
			degree[n.TargetID]++
		}
	}

	// Every required seed must have resolved to a live owned capture.
	seeds := make([]graph.Capture, 0, len(seedIDs))
	for _, id := range seedIDs {
		capture, ok := captures[id]
		if !ok {
			return nil, errors.NewNotFound(id)
		}
		seeds = append(seeds, capture)
	}

	switch order {
	case SortAsc:
		sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].Created < seeds[j].Created })
	case SortDesc:
		sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].Created > seeds[j].Created })
	}

	for _, capture := range seeds {
		results.Nodes = append(results.Nodes, GraphNode{
			ID:      capture.ID,
			Kind:    captureKind,
			Label:   capture.Body,
			Degree:  degree[capture.ID],
			Parents: parents[capture.ID],
		})
	}
	seedSet := make(map[string]struct{}, len(seedIDs))
	for _, id := range seedIDs {
		seedSet[id] = struct{}{}
	}
	for _, id := range otherOrder {
		if _, isSeed := seedSet[id]; isSeed {
			continue
		}
		node := others[id]
		node.Degree = degree[id]
		results.Nodes = append(results.Nodes, node)
	}

	results.Edges = edgeList
	return results, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
