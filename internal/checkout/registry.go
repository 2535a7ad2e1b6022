package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
)

const resumeBatchLimit = 500

// Registry owns the live sessions of this process.
type Registry struct {
	deps   Dependencies
	opts   Options
	ttl    time.Duration
	store  Store
	logger *slog.Logger
	newID  func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs a registry. store may be nil, in which case snapshots
// are only recorded through deps.Recorder and nothing can be resumed.
func NewRegistry(deps Dependencies, opts Options, ttl time.Duration, store Store) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil && store != nil {
		deps.Recorder = store
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		deps:     deps,
		opts:     opts,
		ttl:      ttl,
		store:    store,
		logger:   deps.Logger,
		newID:    uuid.NewString,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session and runs its one-shot initialization.
func (r *Registry) Open(ctx context.Context, orderID string) (*Session, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("registry stopped: %w", err)
	}

	s := NewSession(r.ctx, r.newID(), r.deps, r.opts)
	if err := s.Initialize(ctx, orderID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.logger.Info("checkout session opened", slog.String("session_id", s.ID()), slog.String("order_id", orderID))
	return s, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domainErrors.ErrSessionNotFound
	}
	return s, nil
}

// Close unmounts a session: polling stops and the session is forgotten,
// including its stored snapshot, so Resume never brings it back.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domainErrors.ErrSessionNotFound
	}
	r.forget(s)
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many were closed.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.IdleSince()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.forget(s)
	}
	if len(expired) > 0 {
		r.logger.Info("expired idle checkout sessions", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Resume restores sessions that were waiting for a bank decision when the
// process stopped and restarts their polling.
func (r *Registry) Resume(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}

	snapshots, err := r.store.ListInFlight(ctx, resumeBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list in-flight sessions: %w", err)
	}

	resumed := 0
	for _, snap := range snapshots {
		if !snap.InFlight() {
			continue
		}
		r.mu.Lock()
		if _, exists := r.sessions[snap.SessionID]; exists {
			r.mu.Unlock()
			continue
		}
		s := restoreSession(r.ctx, snap, r.deps, r.opts)
		r.sessions[snap.SessionID] = s
		r.mu.Unlock()

		s.resumePolling()
		resumed++
	}

	if resumed > 0 {
		r.logger.Info("resumed in-flight checkout sessions", slog.Int("count", resumed))
	}
	return resumed, nil
}

// forget closes s and removes its snapshot. Close runs first so no
// transition can record the session again after the delete.
func (r *Registry) forget(s *Session) {
	s.Close()
	if r.store == nil {
		return
	}
	if err := r.store.Delete(context.Background(), s.ID()); err != nil {
		r.logger.Error("delete session snapshot failed", slog.String("session_id", s.ID()), slog.String("error", err.Error()))
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown stops every poll cycle. Sessions stay recorded for Resume.
func (r *Registry) Shutdown() {
	r.cancel()

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
