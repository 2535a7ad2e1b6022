package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper expires idle sessions.
type Sweeper interface {
	Sweep(now time.Time) int
}

// SessionJanitor periodically closes checkout sessions that have been idle past their TTL.
type SessionJanitor struct {
	sweeper  Sweeper
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSessionJanitor constructs the janitor. A non-positive interval defaults to one minute.
func NewSessionJanitor(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *SessionJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionJanitor{
		sweeper:  sweeper,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (j *SessionJanitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.loop(runCtx)
}

// Stop waits for the loop to finish.
func (j *SessionJanitor) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *SessionJanitor) loop(ctx context.Context) {
	defer j.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.sweeper.Sweep(j.now()); n > 0 {
				j.logger.Debug("janitor swept sessions", slog.Int("count", n))
			}
		}
	}
}
