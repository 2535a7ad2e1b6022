package gateway

import (
	"encoding/json"
	"net/http"
	"path"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
)

// Mode captures everything that differs between the merchant-authenticated
// and public gateway deployments.
type Mode interface {
	Name() string
	SubmitPath() string
	StatusPath(paymentID string) string
	Authorize(h http.Header)
	ErrorDescription(body []byte) string
	DeclineFallback() string
}

const (
	headerAPIKey    = "X-Api-Key"
	headerAPISecret = "X-Api-Secret"
)

type merchantMode struct {
	apiKey    string
	apiSecret string
}

// MerchantMode targets the authenticated endpoints and attaches the merchant
// credential pair to submit and status requests.
func MerchantMode(apiKey, apiSecret string) Mode {
	return merchantMode{apiKey: apiKey, apiSecret: apiSecret}
}

func (merchantMode) Name() string       { return "merchant" }
func (merchantMode) SubmitPath() string { return "/api/v1/payments" }

func (merchantMode) StatusPath(paymentID string) string {
	return path.Join("/api/v1/payments", paymentID)
}

func (m merchantMode) Authorize(h http.Header) {
	h.Set(headerAPIKey, m.apiKey)
	h.Set(headerAPISecret, m.apiSecret)
}

// ErrorDescription reads {"error": {"description": ...}}.
func (merchantMode) ErrorDescription(body []byte) string {
	var payload struct {
		Error *errorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil {
		return ""
	}
	return payload.Error.Description
}

func (merchantMode) DeclineFallback() string { return domainErrors.MessageMerchantDecline }

type publicMode struct{}

// PublicMode targets the unauthenticated endpoints. No credentials leave the service.
func PublicMode() Mode {
	return publicMode{}
}

func (publicMode) Name() string       { return "public" }
func (publicMode) SubmitPath() string { return "/api/v1/payments/public" }

func (publicMode) StatusPath(paymentID string) string {
	return path.Join("/api/v1/payments", paymentID, "public")
}

func (publicMode) Authorize(http.Header) {}

// ErrorDescription reads {"detail": {"error": {"description": ...}}}.
func (publicMode) ErrorDescription(body []byte) string {
	var payload struct {
		Detail *struct {
			Error *errorBody `json:"error"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil || payload.Detail.Error == nil {
		return ""
	}
	return payload.Detail.Error.Description
}

func (publicMode) DeclineFallback() string { return domainErrors.MessagePublicDecline }

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
