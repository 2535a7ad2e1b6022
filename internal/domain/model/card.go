package model

// CardNetwork is derived from the leading digits of a card number.
type CardNetwork string

const (
	CardNetworkVisa       CardNetwork = "visa"
	CardNetworkMastercard CardNetwork = "mastercard"
	CardNetworkAmex       CardNetwork = "amex"
	CardNetworkRuPay      CardNetwork = "rupay"
	CardNetworkUnknown    CardNetwork = "unknown"
)

// CardInspection is the advisory feedback shown while a card number is typed.
type CardInspection struct {
	Network   CardNetwork
	LuhnValid bool
}
