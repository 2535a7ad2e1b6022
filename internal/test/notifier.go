package test

import (
	"context"
	"sync"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// NotifierStub records emitted signals.
type NotifierStub struct {
	mu      sync.Mutex
	signals []model.Signal
}

// Notify stores the signal.
func (n *NotifierStub) Notify(_ context.Context, signal model.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, signal)
}

// Signals returns a copy of everything received so far.
func (n *NotifierStub) Signals() []model.Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Signal(nil), n.signals...)
}
