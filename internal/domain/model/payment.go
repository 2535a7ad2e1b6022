package model

import "time"

// PaymentMethod identifies how the payer settles the order.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// Valid reports whether the method is one the checkout supports.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodUPI || m == PaymentMethodCard
}

// PaymentStatus is the bank decision state reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further status change is expected.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// CardDetails carries card data for a single submission. It is never persisted.
type CardDetails struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	HolderName  string
}

// PaymentRequest is built once per submission attempt.
type PaymentRequest struct {
	OrderID string
	Method  PaymentMethod
	VPA     string
	Card    *CardDetails
}

// PaymentRecord is the server-side payment as observed through status polling.
type PaymentRecord struct {
	ID               string
	OrderID          string
	Amount           int64
	Currency         string
	Method           PaymentMethod
	Status           PaymentStatus
	VPA              string
	CardNetwork      string
	CardLast4        string
	ErrorCode        string
	ErrorDescription string
	CreatedAt        time.Time
}
