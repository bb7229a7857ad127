package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rolodex/internal/professional/models"
	"rolodex/pkg/platform/sentinel"
	"rolodex/pkg/requestcontext"
)

// InMemory keeps professional records in process memory. It enforces the
// same uniqueness facts as the PostgreSQL store so unit tests exercise real
// conflict behavior.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Professional
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*models.Professional),
		byEmail: make(map[string]uuid.UUID),
		byPhone: make(map[string]uuid.UUID),
	}
}

// Upsert finds the record whose key column equals value and replaces its
// fields with the candidate's, or creates a new record when no match
// exists. A collision on the other unique key surfaces as ErrConflict.
func (s *InMemory) Upsert(ctx context.Context, key models.MatchKey, value string, c models.Candidate) (*models.Professional, bool, error) {
	if value == "" {
		return nil, false, fmt.Errorf("upsert: empty %s match key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)

	var existing *models.Professional
	switch key {
	case models.MatchKeyEmail:
		if id, ok := s.byEmail[value]; ok {
			existing = s.byID[id]
		}
	case models.MatchKeyPhone:
		if id, ok := s.byPhone[value]; ok {
			existing = s.byID[id]
		}
	default:
		return nil, false, fmt.Errorf("upsert: unknown match key %q", key)
	}

	if err := s.checkUniqueness(c, existing); err != nil {
		return nil, false, err
	}

	if existing == nil {
		rec := c.NewRecord(uuid.New(), now)
		s.byID[rec.ID] = rec
		s.reindex(rec, models.Candidate{})
		cp := *rec
		return &cp, true, nil
	}

	prev := models.Candidate{Email: existing.Email, Phone: existing.Phone}
	c.ApplyTo(existing, now)
	s.reindex(existing, prev)
	cp := *existing
	return &cp, false, nil
}

// checkUniqueness rejects candidates whose email or phone belongs to a
// different stored record than the one being written.
func (s *InMemory) checkUniqueness(c models.Candidate, target *models.Professional) error {
	if c.Email != "" {
		if id, ok := s.byEmail[c.Email]; ok && (target == nil || id != target.ID) {
			return fmt.Errorf("professional with this email already exists: %w", sentinel.ErrConflict)
		}
	}
	if c.Phone != "" {
		if id, ok := s.byPhone[c.Phone]; ok && (target == nil || id != target.ID) {
			return fmt.Errorf("professional with this phone already exists: %w", sentinel.ErrConflict)
		}
	}
	return nil
}

// reindex updates the unique key indexes after rec's email/phone changed
// away from the prev values.
func (s *InMemory) reindex(rec *models.Professional, prev models.Candidate) {
	if prev.Email != "" && prev.Email != rec.Email {
		delete(s.byEmail, prev.Email)
	}
	if prev.Phone != "" && prev.Phone != rec.Phone {
		delete(s.byPhone, prev.Phone)
	}
	if rec.Email != "" {
		s.byEmail[rec.Email] = rec.ID
	}
	if rec.Phone != "" {
		s.byPhone[rec.Phone] = rec.ID
	}
}

// Count returns the total number of stored records.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// List returns records newest-first, optionally filtered by source.
// An unknown source simply matches nothing.
func (s *InMemory) List(_ context.Context, source models.Source) ([]*models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Professional, 0, len(s.byID))
	for _, rec := range s.byID {
		if source != "" && rec.Source != source {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}
