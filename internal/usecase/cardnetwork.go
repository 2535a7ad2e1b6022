package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/polkiloo/checkout/internal/domain/model"
)

var mastercardPrefixes = []string{
	"51", "52", "53", "54", "55",
	"2221", "2222", "2223", "2224", "2225", "2226", "2227", "2228", "2229",
	"223", "224", "225", "226", "227", "270", "271", "2720",
}

var rupayPrefixes = []string{"60", "65", "81", "82", "83", "84", "85", "86", "87", "88", "89"}

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// ClassifyCardNetwork maps raw card input to its network. Every call is
// independent, so it is safe to run on each keystroke.
func ClassifyCardNetwork(raw string) model.CardNetwork {
	digits := digitsOnly(raw)

	switch {
	case strings.HasPrefix(digits, "4"):
		return model.CardNetworkVisa
	case hasAnyPrefix(digits, mastercardPrefixes):
		return model.CardNetworkMastercard
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return model.CardNetworkAmex
	case hasAnyPrefix(digits, rupayPrefixes):
		return model.CardNetworkRuPay
	default:
		return model.CardNetworkUnknown
	}
}

// ValidateCardNumber checks a card number with the Luhn algorithm. Spaces and
// dashes are ignored; anything else that is not a digit fails.
func ValidateCardNumber(number string) bool {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	var sum int
	var alt bool
	for i := len(number) - 1; i >= 0; i-- {
		r := rune(number[i])
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if alt {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		alt = !alt
	}

	return sum%10 == 0
}

// ValidateVPA checks the shape of a UPI handle such as name@bank.
func ValidateVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
