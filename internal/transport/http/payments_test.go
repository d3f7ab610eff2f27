package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cimillas/ticket-office/internal/domain"
)

type stubReconciler struct {
	order          domain.Order
	err            error
	gotPublicRef   string
	gotProviderRef string
}

func (s *stubReconciler) Reconcile(_ context.Context, publicRef string) (domain.Order, error) {
	s.gotPublicRef = publicRef
	return s.order, s.err
}

func (s *stubReconciler) ReconcileByProviderReference(_ context.Context, providerRef string) (domain.Order, error) {
	s.gotProviderRef = providerRef
	return s.order, s.err
}

func TestHandlePaymentCallback(t *testing.T) {
	t.Parallel()

	t.Run("reconciles by provider reference", func(t *testing.T) {
		svc := &stubReconciler{order: domain.Order{PublicReference: "ref-1", Status: domain.OrderStatusPaid}}
		req := httptest.NewRequest(http.MethodPost, "/payments/callback?reference=prov-1", nil)
		rec := httptest.NewRecorder()

		HandlePaymentCallback(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotProviderRef != "prov-1" {
			t.Fatalf("expected provider reference forwarded, got %q", svc.gotProviderRef)
		}
		if !strings.Contains(rec.Body.String(), `"status":"PAID"`) {
			t.Fatalf("expected PAID in body, got %s", rec.Body.String())
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/callback", nil)
		rec := httptest.NewRecorder()

		HandlePaymentCallback(&stubReconciler{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown provider reference", func(t *testing.T) {
		svc := &stubReconciler{err: domain.ErrOrderNotFound}
		req := httptest.NewRequest(http.MethodPost, "/payments/callback?reference=nope", nil)
		rec := httptest.NewRecorder()

		HandlePaymentCallback(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("unknown provider status", func(t *testing.T) {
		svc := &stubReconciler{err: &domain.UnknownPaymentStatusError{Status: "ON_HOLD"}}
		req := httptest.NewRequest(http.MethodPost, "/payments/callback?reference=prov-1", nil)
		rec := httptest.NewRecorder()

		HandlePaymentCallback(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"unknown_provider_status"`) {
			t.Fatalf("expected unknown status code, got %s", rec.Body.String())
		}
	})

	t.Run("get not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/callback?reference=prov-1", nil)
		rec := httptest.NewRecorder()

		HandlePaymentCallback(&stubReconciler{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestHandlePaymentStatus(t *testing.T) {
	t.Parallel()

	t.Run("reconciles before answering", func(t *testing.T) {
		svc := &stubReconciler{order: domain.Order{PublicReference: "ref-1", Status: domain.OrderStatusPending}}
		req := httptest.NewRequest(http.MethodGet, "/payments/ref-1/status", nil)
		rec := httptest.NewRecorder()

		HandlePaymentStatus(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotPublicRef != "ref-1" {
			t.Fatalf("expected public reference forwarded, got %q", svc.gotPublicRef)
		}
		if !strings.Contains(rec.Body.String(), `"status":"PENDING"`) {
			t.Fatalf("expected PENDING in body, got %s", rec.Body.String())
		}
	})

	t.Run("order without payment", func(t *testing.T) {
		svc := &stubReconciler{err: domain.ErrNoProviderReference}
		req := httptest.NewRequest(http.MethodGet, "/payments/ref-1/status", nil)
		rec := httptest.NewRecorder()

		HandlePaymentStatus(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/ref-1", nil)
		rec := httptest.NewRecorder()

		HandlePaymentStatus(&stubReconciler{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
