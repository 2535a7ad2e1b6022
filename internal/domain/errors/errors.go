package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrInvalidForm       = errors.New("invalid payment form")
	ErrInvalidToken      = errors.New("invalid session token")
)

// User-visible messages used when the gateway gives no description.
const (
	MessageOrderLoad         = "Unable to load order"
	MessageOrderMissing      = "No order to pay for"
	MessageSubmission        = "Payment could not be processed"
	MessagePollingTransport  = "Unable to confirm payment status"
	MessagePollingExhausted  = "Payment confirmation timed out"
	MessageMerchantDecline   = "Payment failed at bank"
	MessagePublicDecline     = "Transaction declined by bank"
	messageUnexpectedFailure = "Something went wrong"
)
