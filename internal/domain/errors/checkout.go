package errors

import "fmt"

// OrderLoadError reports that the order could not be fetched or no order id was given.
type OrderLoadError struct {
	OrderID string
	Err     error
}

func (e *OrderLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load order %q", e.OrderID)
	}
	return fmt.Sprintf("load order %q: %v", e.OrderID, e.Err)
}

func (e *OrderLoadError) Unwrap() error { return e.Err }

// UserMessage implements the Messager contract.
func (e *OrderLoadError) UserMessage() string {
	if e.OrderID == "" {
		return MessageOrderMissing
	}
	return MessageOrderLoad
}

// PaymentSubmissionError reports a rejected payment submission.
type PaymentSubmissionError struct {
	StatusCode  int
	Description string
	Err         error
}

func (e *PaymentSubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit payment: %v", e.Err)
	}
	return fmt.Sprintf("submit payment: status %d: %s", e.StatusCode, e.UserMessage())
}

func (e *PaymentSubmissionError) Unwrap() error { return e.Err }

func (e *PaymentSubmissionError) UserMessage() string {
	if e.Description == "" {
		return MessageSubmission
	}
	return e.Description
}

// BankDeclineError is the terminal failed status observed while polling.
type BankDeclineError struct {
	PaymentID   string
	Description string
}

func (e *BankDeclineError) Error() string {
	return fmt.Sprintf("payment %s declined: %s", e.PaymentID, e.Description)
}

func (e *BankDeclineError) UserMessage() string { return e.Description }

// PollingTransportError is a failure of a single status request. It ends polling.
type PollingTransportError struct {
	PaymentID string
	Err       error
}

func (e *PollingTransportError) Error() string {
	return fmt.Sprintf("poll payment %s: %v", e.PaymentID, e.Err)
}

func (e *PollingTransportError) Unwrap() error { return e.Err }

func (e *PollingTransportError) UserMessage() string { return MessagePollingTransport }

// PollingExhaustedError reports that the configured polling bound was reached.
type PollingExhaustedError struct {
	PaymentID string
	Attempts  int
}

func (e *PollingExhaustedError) Error() string {
	return fmt.Sprintf("poll payment %s: gave up after %d attempts", e.PaymentID, e.Attempts)
}

func (e *PollingExhaustedError) UserMessage() string { return MessagePollingExhausted }

// Messager is implemented by errors that carry a payer-facing message.
type Messager interface {
	UserMessage() string
}

// UserMessage returns the payer-facing message carried by err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m Messager
	if As(err, &m) {
		return m.UserMessage()
	}
	return messageUnexpectedFailure
}
