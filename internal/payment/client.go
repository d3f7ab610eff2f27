// Package payment talks to the external payment provider over HTTP.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/cimillas/ticket-office/internal/monitoring"
)

// OrderRequest is the provider order creation body. ProductKeys holds one key
// per purchased unit: the provider bills per unit, so quantities are expanded,
// never aggregated.
type OrderRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	ReturnURL   string   `json:"returnUrl"`
	ProductKeys []string `json:"productKeys"`
}

// CreatedOrder is the provider's answer to a successful order creation.
type CreatedOrder struct {
	URL             string `json:"url"`
	PublicReference string `json:"publicReference"`
}

// Provider is the payment provider surface the reconciler depends on.
type Provider interface {
	CreateOrder(ctx context.Context, req OrderRequest) (CreatedOrder, error)
	OrderStatus(ctx context.Context, reference string) (string, error)
}

const defaultTimeout = 10 * time.Second

// Client implements Provider against the provider's REST API with a bounded
// timeout per call.
type Client struct {
	issuerURL string
	hc        *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func NewClient(issuerURL string, opts ...ClientOption) *Client {
	c := &Client{
		issuerURL: strings.TrimRight(issuerURL, "/"),
		hc:        &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateOrder(ctx context.Context, orderReq OrderRequest) (CreatedOrder, error) {
	body, err := json.Marshal(orderReq)
	if err != nil {
		return CreatedOrder{}, fmt.Errorf("marshal provider order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.issuerURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return CreatedOrder{}, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		monitoring.TrackProviderCall("create_order", "unreachable")
		return CreatedOrder{}, &domain.ProviderError{Message: "create order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		monitoring.TrackProviderCall("create_order", "rejected")
		return CreatedOrder{}, &domain.ProviderError{Message: providerMessage(resp)}
	}

	var created CreatedOrder
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		monitoring.TrackProviderCall("create_order", "unparsable")
		return CreatedOrder{}, &domain.ProviderError{Message: "decode create order response", Err: err}
	}

	monitoring.TrackProviderCall("create_order", "ok")
	return created, nil
}

func (c *Client) OrderStatus(ctx context.Context, reference string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.issuerURL+"/api/orders/"+reference, nil)
	if err != nil {
		return "", fmt.Errorf("build provider request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		monitoring.TrackProviderCall("order_status", "unreachable")
		return "", &domain.ProviderError{Message: "order status", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		monitoring.TrackProviderCall("order_status", "rejected")
		return "", &domain.ProviderError{Message: providerMessage(resp)}
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		monitoring.TrackProviderCall("order_status", "unparsable")
		return "", &domain.ProviderError{Message: "decode order status response", Err: err}
	}

	monitoring.TrackProviderCall("order_status", "ok")
	return status.Status, nil
}

// providerMessage surfaces the provider's own error text when it sent any.
func providerMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := strings.TrimSpace(string(body))

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			text = envelope.Message
		} else if envelope.Error != "" {
			text = envelope.Error
		}
	}

	if text == "" {
		return fmt.Sprintf("provider returned status %d", resp.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, text)
}
