package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/augbriz/desarrollo-FE-tp/internal/auth"
	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
)

// CheckoutClient wraps the store API's checkout endpoints. Every call except
// Result requires a bearer token and fails before any network I/O without one.
type CheckoutClient struct {
	api storeAPI
}

// NewCheckoutClient creates a CheckoutClient for the store API at baseURL.
func NewCheckoutClient(doer httpclient.Doer, baseURL string, logger *slog.Logger) *CheckoutClient {
	return &CheckoutClient{api: newStoreAPI(doer, baseURL, logger)}
}

type productRequest struct {
	Type domain.ProductType `json:"tipo"`
	ID   int                `json:"id"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// StartSession opens a checkout session for a product.
func (c *CheckoutClient) StartSession(ctx context.Context, token string, typ domain.ProductType, id int) (*domain.CheckoutSession, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.CheckoutSession
	if err := c.api.call(ctx, "checkout.start", http.MethodPost, "/checkout/start", nil, token, productRequest{Type: typ, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmSimulated marks a session paid without a payment provider.
func (c *CheckoutClient) ConfirmSimulated(ctx context.Context, token, sessionID string) (*domain.Confirmation, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.Confirmation
	if err := c.api.call(ctx, "checkout.simulate_success", http.MethodPost, "/checkout/simulate-success", nil, token, sessionRequest{SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollStatus returns the current status of a session.
func (c *CheckoutClient) PollStatus(ctx context.Context, token, sessionID string) (*domain.SessionStatus, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.SessionStatus
	q := url.Values{"sessionId": {sessionID}}
	if err := c.api.call(ctx, "checkout.status", http.MethodGet, "/checkout/status", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartProviderPreference creates a payment-provider preference for a product.
func (c *CheckoutClient) StartProviderPreference(ctx context.Context, token string, typ domain.ProductType, id int) (*domain.Preference, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.Preference
	if err := c.api.call(ctx, "checkout.provider_start", http.MethodPost, "/checkout/mp/start", nil, token, productRequest{Type: typ, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmByPaymentID confirms a provider payment and returns the sale.
func (c *CheckoutClient) ConfirmByPaymentID(ctx context.Context, token, paymentID string) (*domain.Confirmation, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.Confirmation
	q := url.Values{"payment_id": {paymentID}}
	if err := c.api.call(ctx, "checkout.provider_confirm", http.MethodGet, "/checkout/mp/confirm", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResultByPaymentID looks up a provider payment. It needs no credential.
func (c *CheckoutClient) ResultByPaymentID(ctx context.Context, paymentID string) (*domain.PaymentResult, error) {
	var out domain.PaymentResult
	q := url.Values{"payment_id": {paymentID}}
	if err := c.api.call(ctx, "checkout.provider_result", http.MethodGet, "/checkout/mp/result", q, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSaleByID returns a sale record.
func (c *CheckoutClient) FetchSaleByID(ctx context.Context, token string, id int) (*domain.Sale, error) {
	if token == "" {
		return nil, auth.ErrNotAuthenticated()
	}
	var out domain.Sale
	if err := c.api.call(ctx, "sale.get", http.MethodGet, "/venta/"+strconv.Itoa(id), nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
