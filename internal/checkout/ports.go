package checkout

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// OrderLoader fetches the order a session pays for.
type OrderLoader interface {
	LoadOrder(ctx context.Context, orderID string) (*model.Order, error)
}

// PaymentSubmitter creates a payment and returns its identifier.
type PaymentSubmitter interface {
	SubmitPayment(ctx context.Context, req model.PaymentRequest) (string, error)
}

// StatusChecker reads the current state of a payment.
type StatusChecker interface {
	PaymentStatus(ctx context.Context, paymentID string) (*model.PaymentRecord, error)
}

// Gateway is the full set of gateway operations a session drives.
type Gateway interface {
	OrderLoader
	PaymentSubmitter
	StatusChecker
	DeclineFallback() string
}

// Notifier delivers terminal signals to the transactions view.
type Notifier interface {
	Notify(ctx context.Context, signal model.Signal)
}

// Recorder persists session snapshots on every transition.
type Recorder interface {
	Record(ctx context.Context, snapshot model.Snapshot) error
}

// Store is a Recorder that can also list sessions waiting for a bank decision
// and drop the snapshot of a session that was closed for good.
type Store interface {
	Recorder
	ListInFlight(ctx context.Context, limit int) ([]model.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.Signal) {}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, model.Snapshot) error { return nil }
