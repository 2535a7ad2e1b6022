package dto

import "strings"

// MaskCardNumber replaces every digit but the last four with '*'.
func MaskCardNumber(number string) string {
	digits := 0
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits++
		}
	}

	var b strings.Builder
	b.Grow(len(number))
	seen := 0
	for _, r := range number {
		if r >= '0' && r <= '9' {
			seen++
			if digits-seen >= 4 {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
