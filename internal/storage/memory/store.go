// Package memory keeps checkout session snapshots in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

// Store is a goroutine-safe snapshot store used when no database is configured.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]model.Snapshot
}

// New returns an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]model.Snapshot)}
}

// Record saves the snapshot without the form values or payment record.
func (s *Store) Record(_ context.Context, snap model.Snapshot) error {
	snap.Form = model.FormValues{}
	snap.Payment = nil
	if snap.Order != nil {
		order := *snap.Order
		snap.Order = &order
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.sessions[snap.SessionID]; ok && !prev.CreatedAt.IsZero() {
		snap.CreatedAt = prev.CreatedAt
	}
	s.sessions[snap.SessionID] = snap
	return nil
}

// Get returns the last recorded snapshot.
func (s *Store) Get(_ context.Context, id string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[id]
	if !ok {
		return model.Snapshot{}, domainErrors.ErrNotFound
	}
	return snap, nil
}

// Delete drops the snapshot of a session. Unknown ids are ignored.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports how many snapshots are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ListInFlight returns up to limit sessions waiting for a bank decision, oldest first.
func (s *Store) ListInFlight(_ context.Context, limit int) ([]model.Snapshot, error) {
	s.mu.RLock()
	result := make([]model.Snapshot, 0)
	for _, snap := range s.sessions {
		if snap.InFlight() {
			result = append(result, snap)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(context.Context) error {
	return nil
}
