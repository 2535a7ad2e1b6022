package usecase

import (
	"fmt"
	"strings"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

// BuildPaymentRequest turns raw form input into a gateway request. Only the
// presence of required fields is checked; format checks belong to the gateway.
func BuildPaymentRequest(orderID string, method model.PaymentMethod, form model.FormValues) (model.PaymentRequest, error) {
	req := model.PaymentRequest{OrderID: orderID, Method: method}

	switch method {
	case model.PaymentMethodUPI:
		vpa := strings.TrimSpace(form.VPA)
		if vpa == "" {
			return model.PaymentRequest{}, fmt.Errorf("%w: vpa is required", domainErrors.ErrInvalidForm)
		}
		req.VPA = vpa
	case model.PaymentMethodCard:
		card, err := buildCard(form)
		if err != nil {
			return model.PaymentRequest{}, err
		}
		req.Card = card
	default:
		return model.PaymentRequest{}, fmt.Errorf("%w: unsupported method %q", domainErrors.ErrInvalidForm, method)
	}

	return req, nil
}

func buildCard(form model.FormValues) (*model.CardDetails, error) {
	required := []struct {
		name  string
		value string
	}{
		{"card number", form.CardNumber},
		{"expiry", form.Expiry},
		{"cvv", form.CVV},
		{"cardholder name", form.HolderName},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", domainErrors.ErrInvalidForm, field.name)
		}
	}

	month, year := SplitExpiry(form.Expiry)

	return &model.CardDetails{
		Number:      strings.TrimSpace(form.CardNumber),
		ExpiryMonth: month,
		ExpiryYear:  year,
		CVV:         strings.TrimSpace(form.CVV),
		HolderName:  strings.TrimSpace(form.HolderName),
	}, nil
}

// SplitExpiry splits MM/YY input on the slash. A missing slash yields an empty year.
func SplitExpiry(expiry string) (month, year string) {
	month, year, _ = strings.Cut(strings.TrimSpace(expiry), "/")
	return strings.TrimSpace(month), strings.TrimSpace(year)
}
