package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/ticket-office/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeForbidden             = "forbidden"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidQuantity       = "invalid_quantity"
	codeEmptyOrder            = "empty_order"
	codeProductNotFound       = "product_not_found"
	codeProductNotOnSale      = "product_not_on_sale"
	codeOrderNotFound         = "order_not_found"
	codeCustomerNotFound      = "customer_not_found"
	codeCustomerInvalid       = "customer_invalid"
	codeOrderUnassigned       = "order_unassigned"
	codeInvalidPaymentMethod  = "invalid_payment_method"
	codeLimitExceeded         = "limit_exceeded"
	codeCustomerLimitExceeded = "customer_limit_exceeded"
	codeInvalidTransition     = "invalid_transition"
	codeDuplicate             = "duplicate"
	codeNoProviderReference   = "no_provider_reference"
	codeUnknownProviderStatus = "unknown_provider_status"
	codeProviderUnavailable   = "provider_unavailable"
	codeWebhookNotFound       = "webhook_not_found"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Remaining carries the remaining allowance on limit errors so callers
	// can render "N left".
	Remaining *int `json:"remaining,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error onto an HTTP status and error code.
func writeDomainError(w http.ResponseWriter, err error) {
	var limitErr *domain.LimitExceededError
	if errors.As(err, &limitErr) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     limitErr.Error(),
			Code:      codeLimitExceeded,
			Remaining: &limitErr.Remaining,
		})
		return
	}
	var customerLimitErr *domain.CustomerLimitError
	if errors.As(err, &customerLimitErr) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     customerLimitErr.Error(),
			Code:      codeCustomerLimitExceeded,
			Remaining: &customerLimitErr.Remaining,
		})
		return
	}
	var transitionErr *domain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		writeError(w, http.StatusConflict, codeInvalidTransition, transitionErr.Error())
		return
	}
	var statusErr *domain.UnknownPaymentStatusError
	if errors.As(err, &statusErr) {
		writeError(w, http.StatusBadGateway, codeUnknownProviderStatus, statusErr.Error())
		return
	}
	var providerErr *domain.ProviderError
	if errors.As(err, &providerErr) {
		writeError(w, http.StatusBadGateway, codeProviderUnavailable, providerErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, codeEmptyOrder, err.Error())
	case errors.Is(err, domain.ErrCustomerInvalid):
		writeError(w, http.StatusBadRequest, codeCustomerInvalid, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidMethod):
		writeError(w, http.StatusBadRequest, codeInvalidPaymentMethod, err.Error())
	case errors.Is(err, domain.ErrOrderUnassigned):
		writeError(w, http.StatusBadRequest, codeOrderUnassigned, err.Error())
	case errors.Is(err, domain.ErrNoProviderReference):
		writeError(w, http.StatusBadRequest, codeNoProviderReference, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, codeCustomerNotFound, err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		writeError(w, http.StatusNotFound, codeWebhookNotFound, err.Error())
	case errors.Is(err, domain.ErrProductNotOnSale):
		writeError(w, http.StatusConflict, codeProductNotOnSale, err.Error())
	case errors.Is(err, domain.ErrDuplicateProduct),
		errors.Is(err, domain.ErrDuplicateCustomer),
		errors.Is(err, domain.ErrDuplicateWebhook):
		writeError(w, http.StatusConflict, codeDuplicate, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
