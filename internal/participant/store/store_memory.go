package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"termo/internal/participant/models"
	"termo/pkg/platform/sentinel"
)

// InMemoryStore keeps participants in a map. Returned records are copies.
type InMemoryStore struct {
	mu           sync.RWMutex
	participants map[models.DocumentID]*models.Participant
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{participants: make(map[models.DocumentID]*models.Participant)}
}

func clone(p *models.Participant) *models.Participant {
	c := *p
	if p.SignedAt != nil {
		at := *p.SignedAt
		c.SignedAt = &at
	}
	return &c
}

func (s *InMemoryStore) FindByDocumentID(_ context.Context, id models.DocumentID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// Upsert inserts p, or refreshes the registration fields of an existing
// record. Contact, document and signature state are never touched on conflict.
func (s *InMemoryStore) Upsert(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.participants[p.DocumentID]
	if !ok {
		s.participants[p.DocumentID] = clone(p)
		return nil
	}
	existing.FullName = p.FullName
	existing.GuardianName = p.GuardianName
	existing.GuardianPhone = p.GuardianPhone
	existing.Campus = p.Campus
	existing.Email = p.Email
	existing.Age = p.Age
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

// update applies fn to the stored record under the write lock.
func (s *InMemoryStore) update(id models.DocumentID, fn func(p *models.Participant)) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	fn(p)
	return clone(p), nil
}

func (s *InMemoryStore) UpdateDetails(_ context.Context, id models.DocumentID, d models.Details, at time.Time) (*models.Participant, error) {
	return s.update(id, func(p *models.Participant) {
		d.Apply(p)
		p.UpdatedAt = at
	})
}

func (s *InMemoryStore) SetArtifact(_ context.Context, id models.DocumentID, path string, at time.Time) (*models.Participant, error) {
	return s.update(id, func(p *models.Participant) {
		p.DocumentPath = path
		p.Signed = false
		p.SignedAt = nil
		p.UpdatedAt = at
	})
}

func (s *InMemoryStore) MarkSigned(_ context.Context, id models.DocumentID, at time.Time) (*models.Participant, error) {
	return s.update(id, func(p *models.Participant) {
		p.Signed = true
		p.SignedAt = &at
		p.UpdatedAt = at
	})
}

func (s *InMemoryStore) ListSigned(_ context.Context, filter models.SignedFilter) ([]*models.Participant, int, error) {
	s.mu.RLock()
	var matched []*models.Participant
	for _, p := range s.participants {
		if filter.Matches(p) {
			matched = append(matched, clone(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.SignedAt.Equal(*b.SignedAt) {
			return a.SignedAt.After(*b.SignedAt)
		}
		return a.FullName < b.FullName
	})

	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *InMemoryStore) SignedStats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats models.Stats
	campuses := make(map[string]struct{})
	for _, p := range s.participants {
		if !p.Signed {
			continue
		}
		stats.TotalSigned++
		if c := strings.ToLower(strings.TrimSpace(p.Campus)); c != "" {
			campuses[c] = struct{}{}
		}
	}
	stats.TotalCampuses = len(campuses)
	return stats, nil
}
