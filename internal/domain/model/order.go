package model

import "strconv"

// Order is the read-only order a checkout session pays for.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

// DisplayAmount renders the amount held in minor units with two decimals.
func (o Order) DisplayAmount() string {
	return FormatMinorUnits(o.Amount)
}

// FormatMinorUnits renders minor currency units as major units with exactly two decimals.
func FormatMinorUnits(amount int64) string {
	sign := ""
	magnitude := uint64(amount)
	if amount < 0 {
		sign = "-"
		magnitude = uint64(-(amount + 1)) + 1
	}
	cents := magnitude % 100
	pad := ""
	if cents < 10 {
		pad = "0"
	}
	return sign + strconv.FormatUint(magnitude/100, 10) + "." + pad + strconv.FormatUint(cents, 10)
}
