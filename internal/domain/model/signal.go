package model

// Signal is the cross-window message emitted when a checkout resolves.
type Signal string

const (
	SignalPaymentComplete Signal = "payment_complete"
	SignalPaymentFailed   Signal = "payment_failed"
)

// Valid reports whether the signal is one the transactions view reacts to.
func (s Signal) Valid() bool {
	return s == SignalPaymentComplete || s == SignalPaymentFailed
}
