package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"termo/internal/participant/models"
	"termo/internal/participant/store"
	dErrors "termo/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemoryStore()
	s.service = New(s.store)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) add(id, name, campus string, signedAt *time.Time) {
	s.Require().NoError(s.store.Upsert(s.ctx, &models.Participant{
		DocumentID: models.DocumentID(id), FullName: name, Campus: campus,
	}))
	if signedAt != nil {
		_, err := s.store.MarkSigned(s.ctx, models.DocumentID(id), *signedAt)
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestGet() {
	s.add("12345678901", "João", "Centro", nil)

	s.Run("returns the participant", func() {
		p, err := s.service.Get(s.ctx, "12345678901")
		s.Require().NoError(err)
		s.Equal("João", p.FullName)
	})

	s.Run("maps missing participant to not_found", func() {
		_, err := s.service.Get(s.ctx, "99999999999")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListSigned() {
	at := time.Date(2025, 1, 24, 10, 0, 0, 0, time.UTC)
	s.add("11111111111", "Ana", "Centro", &at)
	s.add("22222222222", "Bruno", "Norte", nil)

	s.Run("normalizes paging and returns pagination", func() {
		page, err := s.service.ListSigned(s.ctx, models.SignedFilter{Limit: 500})
		s.Require().NoError(err)
		s.Len(page.Items, 1)
		s.Equal(models.Pagination{Page: 1, Limit: models.MaxLimit, Total: 1, TotalPages: 1}, page.Pagination)
	})

	s.Run("empty result is an empty list", func() {
		page, err := s.service.ListSigned(s.ctx, models.SignedFilter{Search: "nobody"})
		s.Require().NoError(err)
		s.NotNil(page.Items)
		s.Empty(page.Items)
		s.Equal(0, page.Pagination.TotalPages)
	})

	s.Run("rejects an inverted date range", func() {
		from, before := at, at.Add(-time.Hour)
		_, err := s.service.ListSigned(s.ctx, models.SignedFilter{SignedFrom: &from, SignedBefore: &before})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestStats() {
	at := time.Date(2025, 1, 24, 10, 0, 0, 0, time.UTC)
	s.add("11111111111", "Ana", "Centro", &at)
	s.add("22222222222", "Bruno", "Norte", &at)

	stats, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(&models.Stats{TotalSigned: 2, TotalCampuses: 2}, stats)
}

type brokenStore struct{ Store }

func (brokenStore) FindByDocumentID(context.Context, models.DocumentID) (*models.Participant, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) SignedStats(context.Context) (models.Stats, error) {
	return models.Stats{}, errors.New("connection reset")
}

func (s *ServiceSuite) TestStoreFailuresAreInternal() {
	svc := New(brokenStore{})

	_, err := svc.Get(s.ctx, "12345678901")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.Stats(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
