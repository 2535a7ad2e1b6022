package test

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// CheckoutFacadeStub simulates the checkout facade for HTTP layer tests.
// Unset functions return a selection-view snapshot for the given session.
type CheckoutFacadeStub struct {
	OpenFn     func(context.Context, string) (model.Snapshot, string, error)
	SnapshotFn func(string) (model.Snapshot, error)
	SelectFn   func(string, model.PaymentMethod) (model.Snapshot, error)
	BackFn     func(string) (model.Snapshot, error)
	UpdateFn   func(string, model.FormValues) (model.Snapshot, error)
	SubmitFn   func(context.Context, string, model.PaymentMethod, model.FormValues) (model.Snapshot, error)
	RetryFn    func(context.Context, string) (model.Snapshot, error)
	CloseFn    func(string) error
	ParseFn    func(string) (string, error)
	InspectFn  func(string) model.CardInspection
	VPAFn      func(string) bool
	HealthErr  error
}

func selection(sessionID string) model.Snapshot {
	return model.Snapshot{SessionID: sessionID, View: model.ViewSelection}
}

func (s CheckoutFacadeStub) OpenSession(ctx context.Context, orderID string) (model.Snapshot, string, error) {
	if s.OpenFn != nil {
		return s.OpenFn(ctx, orderID)
	}
	snap := selection("sess")
	snap.OrderID = orderID
	return snap, "token:sess", nil
}

func (s CheckoutFacadeStub) Snapshot(sessionID string) (model.Snapshot, error) {
	if s.SnapshotFn != nil {
		return s.SnapshotFn(sessionID)
	}
	return selection(sessionID), nil
}

func (s CheckoutFacadeStub) SelectMethod(sessionID string, method model.PaymentMethod) (model.Snapshot, error) {
	if s.SelectFn != nil {
		return s.SelectFn(sessionID, method)
	}
	return selection(sessionID), nil
}

func (s CheckoutFacadeStub) Back(sessionID string) (model.Snapshot, error) {
	if s.BackFn != nil {
		return s.BackFn(sessionID)
	}
	return selection(sessionID), nil
}

func (s CheckoutFacadeStub) UpdateForm(sessionID string, form model.FormValues) (model.Snapshot, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(sessionID, form)
	}
	return selection(sessionID), nil
}

func (s CheckoutFacadeStub) SubmitForm(ctx context.Context, sessionID string, method model.PaymentMethod, form model.FormValues) (model.Snapshot, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, sessionID, method, form)
	}
	return model.Snapshot{SessionID: sessionID, View: model.ViewProcessing}, nil
}

func (s CheckoutFacadeStub) Retry(ctx context.Context, sessionID string) (model.Snapshot, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, sessionID)
	}
	return selection(sessionID), nil
}

func (s CheckoutFacadeStub) CloseSession(sessionID string) error {
	if s.CloseFn != nil {
		return s.CloseFn(sessionID)
	}
	return nil
}

// ParseToken behaves like StrategyStub unless overridden.
func (s CheckoutFacadeStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return StrategyStub{}.ParseToken(token)
}

func (s CheckoutFacadeStub) InspectCard(number string) model.CardInspection {
	if s.InspectFn != nil {
		return s.InspectFn(number)
	}
	return model.CardInspection{Network: model.CardNetworkUnknown}
}

func (s CheckoutFacadeStub) HealthCheck(context.Context) error {
	return s.HealthErr
}

// InspectVPA reports false unless VPAFn overrides it.
func (s CheckoutFacadeStub) InspectVPA(vpa string) bool {
	if s.VPAFn != nil {
		return s.VPAFn(vpa)
	}
	return false
}
