// Package services composes repository operations into the flows the
// transport layer calls: capture writes here also recompute the derived
// tag and link relationships the repository's edit deliberately clears.
package services

import (
	"context"

	"go.uber.org/zap"
	"tangle/internal/graph"
	"tangle/internal/parse"
	"tangle/internal/urn"
	"tangle/pkg/logger"
)

// CaptureRepo is the slice of the graph repository the service consumes.
type CaptureRepo interface {
	CreateCapture(ctx context.Context, owner urn.URN, plainText, html string, parent urn.URN) (*graph.Capture, error)
	EditCapture(ctx context.Context, owner, id urn.URN, plainText, html string) (*graph.Capture, error)
	ArchiveCapture(ctx context.Context, owner, id urn.URN) (*graph.Capture, error)
	UpsertTag(ctx context.Context, owner urn.URN, name string, parent urn.URN) (*graph.Tag, error)
	UpsertLink(ctx context.Context, owner urn.URN, url string, parent urn.URN) (*graph.Entity, error)
}

// CaptureService owns the create/edit/archive flows for captures.
type CaptureService struct {
	repo   CaptureRepo
	logger *zap.Logger
}

// NewCaptureService creates a capture service over the given repository.
func NewCaptureService(repo CaptureRepo) *CaptureService {
	return &CaptureService{
		repo:   repo,
		logger: logger.Named("captures"),
	}
}

// Create creates a capture and links the tags and URLs its text references.
func (s *CaptureService) Create(ctx context.Context, owner urn.URN, plainText, html string, parent urn.URN) (*graph.Capture, error) {
	capture, err := s.repo.CreateCapture(ctx, owner, plainText, html, parent)
	if err != nil {
		return nil, err
	}
	if err := s.recomputeDerived(ctx, owner, capture); err != nil {
		return nil, err
	}
	return capture, nil
}

// Edit overwrites a capture's content. The repository edit clears every
// derived relationship, so tags and links are recomputed from the new text
// here; skipping this step loses them.
func (s *CaptureService) Edit(ctx context.Context, owner, id urn.URN, plainText, html string) (*graph.Capture, error) {
	capture, err := s.repo.EditCapture(ctx, owner, id, plainText, html)
	if err != nil {
		return nil, err
	}
	if err := s.recomputeDerived(ctx, owner, capture); err != nil {
		return nil, err
	}
	return capture, nil
}

// Archive soft-deletes a capture.
func (s *CaptureService) Archive(ctx context.Context, owner, id urn.URN) (*graph.Capture, error) {
	return s.repo.ArchiveCapture(ctx, owner, id)
}

func (s *CaptureService) recomputeDerived(ctx context.Context, owner urn.URN, capture *graph.Capture) error {
	captureURN, err := urn.Parse(capture.ID)
	if err != nil {
		return err
	}

	for _, name := range parse.ParseTags(capture.PlainText) {
		if _, err := s.repo.UpsertTag(ctx, owner, name, captureURN); err != nil {
			return err
		}
	}
	for _, url := range parse.ParseLinks(capture.PlainText) {
		if _, err := s.repo.UpsertLink(ctx, owner, url, captureURN); err != nil {
			return err
		}
	}
	return nil
}
