package handlers

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// SessionFacade drives checkout sessions on behalf of the renderer.
type SessionFacade interface {
	OpenSession(ctx context.Context, orderID string) (model.Snapshot, string, error)
	Snapshot(sessionID string) (model.Snapshot, error)
	SelectMethod(sessionID string, method model.PaymentMethod) (model.Snapshot, error)
	Back(sessionID string) (model.Snapshot, error)
	UpdateForm(sessionID string, form model.FormValues) (model.Snapshot, error)
	SubmitForm(ctx context.Context, sessionID string, method model.PaymentMethod, form model.FormValues) (model.Snapshot, error)
	Retry(ctx context.Context, sessionID string) (model.Snapshot, error)
	CloseSession(sessionID string) error
}

// TokenFacade resolves session tokens.
type TokenFacade interface {
	ParseToken(token string) (string, error)
}

// CardFacade classifies card numbers and checks UPI handles.
type CardFacade interface {
	InspectCard(number string) model.CardInspection
	InspectVPA(vpa string) bool
}

// HealthFacade checks dependencies.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// CheckoutFacade aggregates the full set of operations used across handlers.
type CheckoutFacade interface {
	SessionFacade
	TokenFacade
	CardFacade
	HealthFacade
}
