package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/pkg/metrics"
)

// MemoryStore is an in-memory Store. Records are kept in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]int // id -> index into order
	order  []model.PerformanceRecord
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// FindAll returns a copy of every record in creation order.
func (s *MemoryStore) FindAll(ctx context.Context) ([]model.PerformanceRecord, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.PerformanceRecord, len(s.order))
	copy(out, s.order)
	return out, nil
}

// FindByID returns the record with id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (model.PerformanceRecord, error) {
	defer observeQuery(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.PerformanceRecord{}, ErrClosed
	}
	i, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.PerformanceRecord{}, ErrNotFound
	}
	return s.order[i], nil
}

// Save inserts rec under a new id when rec.ID is empty and replaces the
// stored record otherwise. Replacing an unknown id fails with ErrNotFound.
func (s *MemoryStore) Save(ctx context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error) {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.PerformanceRecord{}, ErrClosed
	}
	if rec.ID != "" {
		i, ok := s.byID[rec.ID]
		if !ok {
			return model.PerformanceRecord{}, ErrNotFound
		}
		s.order[i] = rec
		return rec, nil
	}
	rec.ID = uuid.NewString()
	s.byID[rec.ID] = len(s.order)
	s.order = append(s.order, rec)
	metrics.UpdateTotalRecords(len(s.order))
	return rec, nil
}

// ExistsByID reports whether id is stored.
func (s *MemoryStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.byID[id]
	return ok, nil
}

// DeleteByID removes the record with id, keeping the order of the rest.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	defer observeUpdate(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.order); j++ {
		s.byID[s.order[j].ID] = j
	}
	metrics.UpdateTotalRecords(len(s.order))
	return nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close marks the store closed. Subsequent calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}
