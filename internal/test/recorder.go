package test

import (
	"context"
	"sync"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// RecorderStub keeps every recorded snapshot in memory.
type RecorderStub struct {
	RecordErr error
	ListErr   error
	DeleteErr error

	mu        sync.Mutex
	snapshots []model.Snapshot
	latest    map[string]model.Snapshot
	deleted   []string
}

// Record appends the snapshot and remembers it as the latest for its session.
func (r *RecorderStub) Record(_ context.Context, snapshot model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RecordErr != nil {
		return r.RecordErr
	}
	if r.latest == nil {
		r.latest = make(map[string]model.Snapshot)
	}
	r.snapshots = append(r.snapshots, snapshot)
	r.latest[snapshot.SessionID] = snapshot
	return nil
}

// ListInFlight returns the latest snapshots still waiting for a bank decision.
func (r *RecorderStub) ListInFlight(_ context.Context, limit int) ([]model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []model.Snapshot
	for _, s := range r.latest {
		if s.InFlight() && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

// Delete forgets the latest snapshot of a session and remembers the id.
func (r *RecorderStub) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.latest, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// Deleted returns the session ids passed to Delete, in order.
func (r *RecorderStub) Deleted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

// Views lists the recorded views of a session in order, collapsing repeats.
func (r *RecorderStub) Views(sessionID string) []model.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []model.ViewState
	for _, s := range r.snapshots {
		if s.SessionID != sessionID {
			continue
		}
		if n := len(views); n > 0 && views[n-1] == s.View {
			continue
		}
		views = append(views, s.View)
	}
	return views
}

// Latest returns the most recent snapshot of a session.
func (r *RecorderStub) Latest(sessionID string) (model.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.latest[sessionID]
	return s, ok
}
