package dto

import "time"

// OpenSessionRequest starts a checkout for an order.
type OpenSessionRequest struct {
	OrderID string `json:"order_id"`
}

// MethodRequest selects a payment method.
type MethodRequest struct {
	Method string `json:"method"`
}

// FormRequest carries the payer's form input. Method is required on submit.
type FormRequest struct {
	Method string `json:"method"`
	VPA    string `json:"vpa,omitempty"`
	Number string `json:"number,omitempty"`
	Expiry string `json:"expiry,omitempty"`
	CVV    string `json:"cvv,omitempty"`
	Name   string `json:"name,omitempty"`
}

// OrderResponse is the order being paid for.
type OrderResponse struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	DisplayAmount string `json:"display_amount"`
}

// FormResponse echoes in-progress input. The CVV is never returned and the
// card number is masked.
type FormResponse struct {
	VPA        string `json:"vpa,omitempty"`
	CardNumber string `json:"number,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	HolderName string `json:"name,omitempty"`
}

// PaymentResponse is the terminal payment record.
type PaymentResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Method      string    `json:"method"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	VPA         string    `json:"vpa,omitempty"`
	CardNetwork string    `json:"card_network,omitempty"`
	CardLast4   string    `json:"card_last4,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionResponse is the renderer-facing state of a checkout session.
type SessionResponse struct {
	ID          string           `json:"id"`
	View        string           `json:"view"`
	Terminal    bool             `json:"terminal"`
	OrderID     string           `json:"order_id,omitempty"`
	Order       *OrderResponse   `json:"order,omitempty"`
	Method      string           `json:"method,omitempty"`
	Form        *FormResponse    `json:"form,omitempty"`
	CardNetwork string           `json:"card_network,omitempty"`
	PaymentID   string           `json:"payment_id,omitempty"`
	Payment     *PaymentResponse `json:"payment,omitempty"`
	Error       string           `json:"error,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// OpenSessionResponse carries the new session and the token bound to it.
type OpenSessionResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

// CardNetworkResponse is the advisory badge for a typed card number.
// VPAValid is set only when a vpa was supplied.
type CardNetworkResponse struct {
	Network   string `json:"network"`
	LuhnValid bool   `json:"luhn_valid"`
	VPAValid  *bool  `json:"vpa_valid,omitempty"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
