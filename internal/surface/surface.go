// Package surface reconstructs presentable sub-graphs from the knowledge
// graph: given a use case or a focal node, it selects seed captures,
// expands them one hop, and emits a deduplicated, ordered result set.
package surface

import (
	"context"
	"time"

	"go.uber.org/zap"
	"tangle/internal/graph"
	"tangle/internal/urn"
	"tangle/pkg/errors"
	"tangle/pkg/logger"
)

// Use-case keywords accepted by GetAllByUseCase.
const (
	UseCaseCapturedToday = "CAPTURED_TODAY"
	UseCaseRandom        = "RANDOM"
)

// Repo is the slice of the graph repository the engine consumes.
type Repo interface {
	GetCapture(ctx context.Context, owner, id urn.URN) (*graph.Capture, error)
	GetMostRecent(ctx context.Context, owner urn.URN, start, count int) ([]graph.Capture, error)
	GetAllSince(ctx context.Context, owner urn.URN, since int64) ([]graph.Capture, error)
	GetRandomCapture(ctx context.Context, owner urn.URN) (*graph.Capture, error)
	GetCapturesRelatedTo(ctx context.Context, owner, node urn.URN) ([]graph.Capture, error)
	GetUntypedNode(ctx context.Context, owner, node urn.URN) (*graph.Entity, error)
	GetConnectedNodes(ctx context.Context, owner urn.URN, captureIDs []string) ([]graph.Neighbor, error)
}

// Engine is the surfacing engine.
type Engine struct {
	repo   Repo
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a surfacing engine over the given repository.
func NewEngine(repo Repo) *Engine {
	return &Engine{
		repo:   repo,
		logger: logger.Named("surface"),
		now:    time.Now,
	}
}

// GetAllByUseCase surfaces captures for a named use case. The timezone
// offset, in hours east of UTC, shifts the day boundary for CAPTURED_TODAY.
// Unknown use cases fail before any store round-trip.
func (e *Engine) GetAllByUseCase(ctx context.Context, owner urn.URN, useCase string, timezoneOffset int) (*SurfaceResults, error) {
	switch useCase {
	case UseCaseCapturedToday:
		return e.getAllCapturedToday(ctx, owner, timezoneOffset)
	case UseCaseRandom:
		return e.getAllRandom(ctx, owner)
	default:
		return nil, errors.NewNotImplemented(useCase)
	}
}

func (e *Engine) getAllCapturedToday(ctx context.Context, owner urn.URN, timezoneOffset int) (*SurfaceResults, error) {
	since := startOfDay(e.now().UTC(), timezoneOffset)
	captures, err := e.repo.GetAllSince(ctx, owner, since)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, captureIDs(captures), "", SortDesc, "Captured today")
}

func (e *Engine) getAllRandom(ctx context.Context, owner urn.URN) (*SurfaceResults, error) {
	capture, err := e.repo.GetRandomCapture(ctx, owner)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, []string{capture.ID}, "", SortDesc,
		"Focusing on the random capture below")
}

// GetAllMostRecent surfaces a page of the owner's newest captures.
func (e *Engine) GetAllMostRecent(ctx context.Context, owner urn.URN, start, count int) (*SurfaceResults, error) {
	captures, err := e.repo.GetMostRecent(ctx, owner, start, count)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, captureIDs(captures), "", SortDesc, "Most recent captures")
}

// GetNode surfaces the sub-graph around a single node, classified by the
// identifier's kind: a capture becomes its own seed; any other node seeds
// the captures related to it.
func (e *Engine) GetNode(ctx context.Context, owner urn.URN, rawURN string) (*SurfaceResults, error) {
	node, err := urn.Parse(rawURN)
	if err != nil {
		return nil, err
	}

	switch node.Kind() {
	case urn.KindCapture:
		return e.getCapture(ctx, owner, node)
	case urn.KindSession:
		return e.getSession(ctx, owner, node)
	default:
		return e.getOther(ctx, owner, node)
	}
}

func (e *Engine) getCapture(ctx context.Context, owner, node urn.URN) (*SurfaceResults, error) {
	capture, err := e.repo.GetCapture(ctx, owner, node)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, []string{capture.ID}, "", SortNone,
		"Focusing on the below capture")
}

// getSession surfaces a session's captures oldest first, so the session
// reads chronologically, with no caption.
func (e *Engine) getSession(ctx context.Context, owner, node urn.URN) (*SurfaceResults, error) {
	captures, err := e.repo.GetCapturesRelatedTo(ctx, owner, node)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, captureIDs(captures), node.Raw(), SortAsc, "")
}

func (e *Engine) getOther(ctx context.Context, owner, node urn.URN) (*SurfaceResults, error) {
	message := ""
	entity, err := e.repo.GetUntypedNode(ctx, owner, node)
	switch {
	case err == nil && entity.Name != "":
		message = "Focusing on '" + entity.Name + "'"
	case err != nil && !errors.IsNotFound(err):
		return nil, err
	}

	captures, err := e.repo.GetCapturesRelatedTo(ctx, owner, node)
	if err != nil {
		return nil, err
	}
	return e.expand(ctx, owner, captureIDs(captures), node.Raw(), SortNone, message)
}

func captureIDs(captures []graph.Capture) []string {
	ids := make([]string, 0, len(captures))
	for _, c := range captures {
		ids = append(ids, c.ID)
	}
	return ids
}

// startOfDay returns the UTC epoch-ms threshold for "today" in the caller's
// local time: shift into the local offset, truncate to the day start, shift
// back out.
func startOfDay(nowUTC time.Time, timezoneOffsetHours int) int64 {
	offset := time.Duration(timezoneOffsetHours) * time.Hour
	local := nowUTC.Add(offset)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart.Add(-offset).UnixMilli()
}
