package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cimillas/ticket-office/internal/domain"
)

// PaymentReconciler is the minimal interface needed to reconcile an order
// against the payment provider.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, publicRef string) (domain.Order, error)
	ReconcileByProviderReference(ctx context.Context, providerRef string) (domain.Order, error)
}

// HandlePaymentCallback returns an HTTP handler for the provider's payment
// push on POST /payments/callback?reference={providerRef}.
func HandlePaymentCallback(svc PaymentReconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		providerRef := r.URL.Query().Get("reference")
		if providerRef == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "reference is required")
			return
		}

		order, err := svc.ReconcileByProviderReference(r.Context(), providerRef)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(paymentStatusResponse{
			PublicReference: order.PublicReference,
			Status:          string(order.Status),
		})
	}
}

// HandlePaymentStatus returns an HTTP handler for
// GET /payments/{publicRef}/status. It reconciles against the provider before
// answering, so polling clients always see the settled state.
func HandlePaymentStatus(svc PaymentReconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		publicRef, ok := parsePaymentStatusPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := svc.Reconcile(r.Context(), publicRef)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(paymentStatusResponse{
			PublicReference: order.PublicReference,
			Status:          string(order.Status),
		})
	}
}

func parsePaymentStatusPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "payments" || parts[2] != "status" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type paymentStatusResponse struct {
	PublicReference string `json:"public_reference"`
	Status          string `json:"status"`
}
