package service

import (
	"context"
	"errors"
	"log/slog"

	"termo/internal/participant/models"
	dErrors "termo/pkg/domain-errors"
	"termo/pkg/platform/sentinel"
)

// Store is the read side of the participant store.
type Store interface {
	FindByDocumentID(ctx context.Context, id models.DocumentID) (*models.Participant, error)
	ListSigned(ctx context.Context, filter models.SignedFilter) ([]*models.Participant, int, error)
	SignedStats(ctx context.Context) (models.Stats, error)
}

// Service answers participant lookups and the signed-documents listing.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Get returns the participant registered under id.
func (s *Service) Get(ctx context.Context, id models.DocumentID) (*models.Participant, error) {
	p, err := s.store.FindByDocumentID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participant")
	}
	return p, nil
}

// ListSigned returns one page of signed participants, newest first.
func (s *Service) ListSigned(ctx context.Context, filter models.SignedFilter) (*models.SignedPage, error) {
	filter = filter.Normalize()
	if filter.SignedFrom != nil && filter.SignedBefore != nil && !filter.SignedFrom.Before(*filter.SignedBefore) {
		return nil, dErrors.New(dErrors.CodeValidation, "signed_from must not be after signed_to")
	}

	items, total, err := s.store.ListSigned(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list signed participants")
	}
	if items == nil {
		items = []*models.Participant{}
	}
	return &models.SignedPage{Items: items, Pagination: models.NewPagination(filter, total)}, nil
}

// Stats summarizes signed documents.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.SignedStats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute signed stats")
	}
	return &stats, nil
}
