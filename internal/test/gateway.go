package test

import (
	"context"
	"sync"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// StatusReply is one scripted answer of GatewayStub.PaymentStatus.
type StatusReply struct {
	Record *model.PaymentRecord
	Err    error
}

// Pending, Succeeded and Declined build common status replies.
func Pending(id string) StatusReply {
	return StatusReply{Record: &model.PaymentRecord{ID: id, Status: model.PaymentStatusPending}}
}

func Succeeded(id string) StatusReply {
	return StatusReply{Record: &model.PaymentRecord{ID: id, Status: model.PaymentStatusSuccess}}
}

func Declined(id, description string) StatusReply {
	return StatusReply{Record: &model.PaymentRecord{ID: id, Status: model.PaymentStatusFailed, ErrorDescription: description}}
}

// GatewayStub scripts gateway responses and counts calls.
type GatewayStub struct {
	LoadFn   func(context.Context, string) (*model.Order, error)
	SubmitFn func(context.Context, model.PaymentRequest) (string, error)
	StatusFn func(context.Context, string) (*model.PaymentRecord, error)

	// Statuses are returned in order; the last one repeats.
	Statuses []StatusReply
	Fallback string

	mu          sync.Mutex
	loadCalls   int
	statusCalls int
	submitted   []model.PaymentRequest
}

// LoadOrder returns a 1500.00 order unless LoadFn overrides it.
func (g *GatewayStub) LoadOrder(ctx context.Context, orderID string) (*model.Order, error) {
	g.mu.Lock()
	g.loadCalls++
	g.mu.Unlock()

	if g.LoadFn != nil {
		return g.LoadFn(ctx, orderID)
	}
	return &model.Order{ID: orderID, Amount: 150000, Currency: "INR", Status: "created"}, nil
}

// SubmitPayment records the request and returns pay_test by default.
func (g *GatewayStub) SubmitPayment(ctx context.Context, req model.PaymentRequest) (string, error) {
	g.mu.Lock()
	g.submitted = append(g.submitted, req)
	g.mu.Unlock()

	if g.SubmitFn != nil {
		return g.SubmitFn(ctx, req)
	}
	return "pay_test", nil
}

// PaymentStatus replays Statuses, reporting pending when none are configured.
func (g *GatewayStub) PaymentStatus(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	g.mu.Lock()
	call := g.statusCalls
	g.statusCalls++
	g.mu.Unlock()

	if g.StatusFn != nil {
		return g.StatusFn(ctx, paymentID)
	}
	if len(g.Statuses) == 0 {
		return &model.PaymentRecord{ID: paymentID, Status: model.PaymentStatusPending}, nil
	}
	reply := g.Statuses[min(call, len(g.Statuses)-1)]
	if reply.Err != nil {
		return nil, reply.Err
	}
	record := *reply.Record
	return &record, nil
}

// DeclineFallback returns Fallback or the public deployment message.
func (g *GatewayStub) DeclineFallback() string {
	if g.Fallback != "" {
		return g.Fallback
	}
	return "Transaction declined by bank"
}

// LoadCalls reports how many times LoadOrder ran.
func (g *GatewayStub) LoadCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadCalls
}

// StatusCalls reports how many status requests were issued.
func (g *GatewayStub) StatusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

// Submitted returns a copy of the submitted payment requests.
func (g *GatewayStub) Submitted() []model.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.PaymentRequest(nil), g.submitted...)
}
