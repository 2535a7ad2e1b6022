package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

var (
	errUnexpectedStatus = errors.New("unexpected gateway status")
	errNegativeAmount   = errors.New("negative order amount")
)

// Client exposes the gateway operations a checkout needs.
type Client interface {
	LoadOrder(ctx context.Context, orderID string) (*model.Order, error)
	SubmitPayment(ctx context.Context, req model.PaymentRequest) (string, error)
	PaymentStatus(ctx context.Context, paymentID string) (*model.PaymentRecord, error)
	DeclineFallback() string
}

// HTTPClient implements Client via the gateway HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	mode       Mode
	httpClient *http.Client
	logger     *slog.Logger
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type cardPayload struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

type paymentPayload struct {
	OrderID string       `json:"order_id"`
	Method  string       `json:"method"`
	VPA     string       `json:"vpa,omitempty"`
	Card    *cardPayload `json:"card,omitempty"`
}

type paymentResponse struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Method           string `json:"method"`
	Status           string `json:"status"`
	VPA              string `json:"vpa"`
	CardNetwork      string `json:"card_network"`
	CardLast4        string `json:"card_last4"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	CreatedAt        string `json:"created_at"`
}

// NewHTTPClient creates a gateway client for the given deployment mode.
func NewHTTPClient(baseURL string, mode Mode, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	if mode == nil {
		mode = PublicMode()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		mode:    mode,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Mode returns the strategy the client was built with.
func (c *HTTPClient) Mode() Mode { return c.mode }

// DeclineFallback is the message shown for a failed payment without description.
func (c *HTTPClient) DeclineFallback() string { return c.mode.DeclineFallback() }

// LoadOrder fetches the public view of an order. It never carries credentials.
func (c *HTTPClient) LoadOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, &domainErrors.OrderLoadError{}
	}

	req, err := c.newRequest(ctx, http.MethodGet, path.Join("/api/v1/orders", orderID, "public"), nil)
	if err != nil {
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("order request failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("order request rejected", slog.String("order_id", orderID), slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)}
	}

	var data orderResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: fmt.Errorf("decode order: %w", err)}
	}
	if data.Amount < 0 {
		return nil, &domainErrors.OrderLoadError{OrderID: orderID, Err: fmt.Errorf("%w: %d", errNegativeAmount, data.Amount)}
	}
	if data.ID == "" {
		data.ID = orderID
	}

	return &model.Order{ID: data.ID, Amount: data.Amount, Currency: data.Currency, Status: data.Status}, nil
}

// SubmitPayment creates a payment and returns its identifier.
func (c *HTTPClient) SubmitPayment(ctx context.Context, p model.PaymentRequest) (string, error) {
	payload := paymentPayload{OrderID: p.OrderID, Method: string(p.Method), VPA: p.VPA}
	if p.Card != nil {
		payload.Card = &cardPayload{
			Number:      p.Card.Number,
			ExpiryMonth: p.Card.ExpiryMonth,
			ExpiryYear:  p.Card.ExpiryYear,
			CVV:         p.Card.CVV,
			HolderName:  p.Card.HolderName,
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &domainErrors.PaymentSubmissionError{Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.mode.SubmitPath(), bytes.NewReader(encoded))
	if err != nil {
		return "", &domainErrors.PaymentSubmissionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.mode.Authorize(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("payment submission failed", slog.String("order_id", p.OrderID), slog.String("error", err.Error()))
		return "", &domainErrors.PaymentSubmissionError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		description := c.mode.ErrorDescription(body)
		c.logger.Warn("payment submission rejected",
			slog.String("order_id", p.OrderID),
			slog.String("mode", c.mode.Name()),
			slog.Int("status", resp.StatusCode),
			slog.String("description", description),
		)
		return "", &domainErrors.PaymentSubmissionError{StatusCode: resp.StatusCode, Description: description}
	}

	var data paymentResponse
	if err := json.Unmarshal(body, &data); err != nil || data.ID == "" {
		if err == nil {
			err = errors.New("payment id missing")
		}
		return "", &domainErrors.PaymentSubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode payment: %w", err)}
	}

	return data.ID, nil
}

// PaymentStatus reads the current payment record. Any failure is a transport
// error for the poll tick that issued it.
func (c *HTTPClient) PaymentStatus(ctx context.Context, paymentID string) (*model.PaymentRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.mode.StatusPath(paymentID), nil)
	if err != nil {
		return nil, &domainErrors.PollingTransportError{PaymentID: paymentID, Err: err}
	}
	c.mode.Authorize(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domainErrors.PollingTransportError{PaymentID: paymentID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domainErrors.PollingTransportError{PaymentID: paymentID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("payment status request failed", slog.String("payment_id", paymentID), slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, &domainErrors.PollingTransportError{PaymentID: paymentID, Err: fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)}
	}

	var data paymentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &domainErrors.PollingTransportError{PaymentID: paymentID, Err: fmt.Errorf("decode status: %w", err)}
	}
	if data.ID == "" {
		data.ID = paymentID
	}

	return &model.PaymentRecord{
		ID:               data.ID,
		OrderID:          data.OrderID,
		Amount:           data.Amount,
		Currency:         data.Currency,
		Method:           model.PaymentMethod(data.Method),
		Status:           model.PaymentStatus(data.Status),
		VPA:              data.VPA,
		CardNetwork:      data.CardNetwork,
		CardLast4:        data.CardLast4,
		ErrorCode:        data.ErrorCode,
		ErrorDescription: data.ErrorDescription,
		CreatedAt:        parseTimestamp(data.CreatedAt),
	}, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, p)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO form some gateways
// emit. Unparseable values yield the zero time.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
