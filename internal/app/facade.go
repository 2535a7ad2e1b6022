package app

import (
	"context"

	"github.com/polkiloo/checkout/internal/checkout"
	"github.com/polkiloo/checkout/internal/domain/model"
	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/usecase"
)

// HealthChecker reports whether session storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckoutFacade is the entry point of the HTTP layer into checkout sessions.
type CheckoutFacade struct {
	registry *checkout.Registry
	tokens   pkgAuth.Strategy
	health   HealthChecker
}

func NewCheckoutFacade(registry *checkout.Registry, tokens pkgAuth.Strategy, health HealthChecker) *CheckoutFacade {
	return &CheckoutFacade{registry: registry, tokens: tokens, health: health}
}

// OpenSession creates a session for orderID and issues the token bound to it.
func (f *CheckoutFacade) OpenSession(ctx context.Context, orderID string) (model.Snapshot, string, error) {
	session, err := f.registry.Open(ctx, orderID)
	if err != nil {
		return model.Snapshot{}, "", err
	}
	token, err := f.tokens.IssueToken(session.ID())
	if err != nil {
		_ = f.registry.Close(session.ID())
		return model.Snapshot{}, "", err
	}
	return session.Snapshot(), token, nil
}

func (f *CheckoutFacade) ParseToken(token string) (string, error) {
	return f.tokens.ParseToken(token)
}

func (f *CheckoutFacade) Snapshot(sessionID string) (model.Snapshot, error) {
	session, err := f.registry.Get(sessionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (f *CheckoutFacade) SelectMethod(sessionID string, method model.PaymentMethod) (model.Snapshot, error) {
	return f.apply(sessionID, func(s *checkout.Session) error {
		return s.SelectMethod(method)
	})
}

func (f *CheckoutFacade) Back(sessionID string) (model.Snapshot, error) {
	return f.apply(sessionID, func(s *checkout.Session) error {
		return s.Back()
	})
}

func (f *CheckoutFacade) UpdateForm(sessionID string, form model.FormValues) (model.Snapshot, error) {
	session, err := f.registry.Get(sessionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return session.UpdateForm(form)
}

func (f *CheckoutFacade) SubmitForm(ctx context.Context, sessionID string, method model.PaymentMethod, form model.FormValues) (model.Snapshot, error) {
	return f.apply(sessionID, func(s *checkout.Session) error {
		return s.SubmitForm(ctx, method, form)
	})
}

func (f *CheckoutFacade) Retry(ctx context.Context, sessionID string) (model.Snapshot, error) {
	return f.apply(sessionID, func(s *checkout.Session) error {
		return s.Retry(ctx)
	})
}

// CloseSession unmounts the session and stops its polling.
func (f *CheckoutFacade) CloseSession(sessionID string) error {
	return f.registry.Close(sessionID)
}

// InspectCard classifies a partially typed card number.
func (f *CheckoutFacade) InspectCard(number string) model.CardInspection {
	return model.CardInspection{
		Network:   usecase.ClassifyCardNetwork(number),
		LuhnValid: usecase.ValidateCardNumber(number),
	}
}

// InspectVPA reports whether vpa looks like a UPI handle. Advisory only.
func (f *CheckoutFacade) InspectVPA(vpa string) bool {
	return usecase.ValidateVPA(vpa)
}

func (f *CheckoutFacade) HealthCheck(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}

func (f *CheckoutFacade) apply(sessionID string, op func(*checkout.Session) error) (model.Snapshot, error) {
	session, err := f.registry.Get(sessionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := op(session); err != nil {
		return model.Snapshot{}, err
	}
	return session.Snapshot(), nil
}
