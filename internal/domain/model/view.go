package model

import "time"

// ViewState is the single active view of a checkout session.
type ViewState string

const (
	ViewSelection  ViewState = "selection"
	ViewUPI        ViewState = "upi"
	ViewCard       ViewState = "card"
	ViewProcessing ViewState = "processing"
	ViewSuccess    ViewState = "success"
	ViewError      ViewState = "error"
)

// Terminal reports whether the view ends the automatic flow of a session.
func (v ViewState) Terminal() bool {
	return v == ViewSuccess || v == ViewError
}

// FormView returns the form view matching a payment method.
func FormView(method PaymentMethod) (ViewState, bool) {
	switch method {
	case PaymentMethodUPI:
		return ViewUPI, true
	case PaymentMethodCard:
		return ViewCard, true
	default:
		return "", false
	}
}

// FormValues holds raw payer input as typed into the method form.
type FormValues struct {
	VPA        string
	CardNumber string
	Expiry     string
	CVV        string
	HolderName string
}

// Snapshot is a point-in-time copy of a checkout session.
type Snapshot struct {
	SessionID    string
	View         ViewState
	OrderID      string
	Order        *Order
	Method       PaymentMethod
	Form         FormValues
	CardNetwork  CardNetwork
	PaymentID    string
	Payment      *PaymentRecord
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InFlight reports whether the snapshot waits for a bank decision.
func (s Snapshot) InFlight() bool {
	return s.View == ViewProcessing && s.PaymentID != ""
}
