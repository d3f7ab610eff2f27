package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/ticket-office/internal/app"
	"github.com/cimillas/ticket-office/internal/domain"
)

type stubProductService struct {
	product  domain.Product
	products []domain.Product
	err      error
	gotInput app.ProductInput
	gotKey   string
}

func (s *stubProductService) CreateProduct(_ context.Context, in app.ProductInput) (domain.Product, error) {
	s.gotInput = in
	return s.product, s.err
}

func (s *stubProductService) UpdateProduct(_ context.Context, key string, in app.ProductInput) (domain.Product, error) {
	s.gotKey = key
	s.gotInput = in
	return s.product, s.err
}

func (s *stubProductService) DeleteProduct(_ context.Context, key string) error {
	s.gotKey = key
	return s.err
}

func (s *stubProductService) GetProduct(_ context.Context, key string) (domain.Product, error) {
	s.gotKey = key
	return s.product, s.err
}

func (s *stubProductService) ListProducts(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:        "p-1",
		Key:       "key-1",
		Title:     "Symposium Ticket",
		Group:     "symposium",
		Cost:      decimal.RequireFromString("15.00"),
		VATRate:   domain.VATRateHigh,
		SellStart: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SellEnd:   time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleAdminProducts(t *testing.T) {
	t.Parallel()

	t.Run("create parses the money and window fields", func(t *testing.T) {
		svc := &stubProductService{product: sampleProduct()}
		body := `{"title":"Symposium Ticket","group":"symposium","cost":"15.00","vat_rate":"HIGH",` +
			`"max_sold":100,"sell_start":"2025-03-01T12:00:00Z","sell_end":"2025-03-02T12:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleAdminProducts(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := svc.gotInput.Cost.StringFixed(2); got != "15.00" {
			t.Fatalf("expected cost 15.00, got %s", got)
		}
		if svc.gotInput.MaxSold == nil || *svc.gotInput.MaxSold != 100 {
			t.Fatalf("expected max_sold 100, got %v", svc.gotInput.MaxSold)
		}
		if !strings.Contains(rec.Body.String(), `"key":"key-1"`) {
			t.Fatalf("expected key in body, got %s", rec.Body.String())
		}
	})

	t.Run("rejects malformed cost", func(t *testing.T) {
		svc := &stubProductService{}
		body := `{"title":"T","group":"g","cost":"fifteen","vat_rate":"HIGH"}`
		req := httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleAdminProducts(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		svc := &stubProductService{products: []domain.Product{sampleProduct()}}
		req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
		rec := httptest.NewRecorder()

		HandleAdminProducts(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"cost":"15.00"`) {
			t.Fatalf("expected cost in body, got %s", rec.Body.String())
		}
	})
}

func TestHandleAdminProduct(t *testing.T) {
	t.Parallel()

	t.Run("delete", func(t *testing.T) {
		svc := &stubProductService{}
		req := httptest.NewRequest(http.MethodDelete, "/admin/products/key-1", nil)
		rec := httptest.NewRecorder()

		HandleAdminProduct(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.gotKey != "key-1" {
			t.Fatalf("expected key forwarded, got %q", svc.gotKey)
		}
	})

	t.Run("delete unknown product", func(t *testing.T) {
		svc := &stubProductService{err: domain.ErrProductNotFound}
		req := httptest.NewRequest(http.MethodDelete, "/admin/products/nope", nil)
		rec := httptest.NewRecorder()

		HandleAdminProduct(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/products/key-1/extra", nil)
		rec := httptest.NewRecorder()

		HandleAdminProduct(&stubProductService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

type stubWebhookService struct {
	hook     domain.Webhook
	hooks    []domain.Webhook
	err      error
	gotInput app.CreateWebhookInput
	gotKey   string
}

func (s *stubWebhookService) CreateWebhook(_ context.Context, in app.CreateWebhookInput) (domain.Webhook, error) {
	s.gotInput = in
	return s.hook, s.err
}

func (s *stubWebhookService) ListWebhooks(context.Context) ([]domain.Webhook, error) {
	return s.hooks, s.err
}

func (s *stubWebhookService) DeleteWebhook(_ context.Context, key string) error {
	s.gotKey = key
	return s.err
}

func TestHandleAdminWebhooks(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		svc := &stubWebhookService{hook: domain.Webhook{
			Key:        "hook-1",
			PayloadURL: "https://consumer.example.org/hook",
			Scope:      "symposium",
			Active:     true,
			Triggers:   []domain.WebhookTrigger{domain.TriggerProductCreateUpdate},
		}}
		body := `{"payload_url":"https://consumer.example.org/hook","secret":"s3cret","scope":"symposium",` +
			`"active":true,"triggers":["PRODUCT_CREATE_UPDATE"]}`
		req := httptest.NewRequest(http.MethodPost, "/admin/webhooks", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleAdminWebhooks(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotInput.Secret != "s3cret" {
			t.Fatalf("expected secret forwarded")
		}
		// The secret never appears in responses.
		if strings.Contains(rec.Body.String(), "s3cret") {
			t.Fatalf("expected secret to be omitted from body, got %s", rec.Body.String())
		}
	})

	t.Run("missing scope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/webhooks",
			bytes.NewBufferString(`{"payload_url":"https://consumer.example.org/hook"}`))
		rec := httptest.NewRecorder()

		HandleAdminWebhooks(&stubWebhookService{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		svc := &stubWebhookService{}
		req := httptest.NewRequest(http.MethodDelete, "/admin/webhooks/hook-1", nil)
		rec := httptest.NewRecorder()

		HandleAdminWebhook(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.gotKey != "hook-1" {
			t.Fatalf("expected key forwarded, got %q", svc.gotKey)
		}
	})

	t.Run("delete unknown hook", func(t *testing.T) {
		svc := &stubWebhookService{err: domain.ErrWebhookNotFound}
		req := httptest.NewRequest(http.MethodDelete, "/admin/webhooks/nope", nil)
		rec := httptest.NewRecorder()

		HandleAdminWebhook(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
