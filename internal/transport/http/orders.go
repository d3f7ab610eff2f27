package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/ticket-office/internal/app"
	"github.com/cimillas/ticket-office/internal/domain"
)

// OrderCreator is the minimal interface needed to create orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (domain.Order, error)
}

// OrderReader is the minimal interface needed to look up an order.
type OrderReader interface {
	GetByPublicReference(ctx context.Context, publicRef string) (domain.Order, error)
}

// OrderAssigner is the minimal interface needed to attach a customer to an
// order.
type OrderAssigner interface {
	AssignCustomer(ctx context.Context, publicRef string, in app.AssignInput) (domain.Order, error)
}

// OrderRejecter is the minimal interface needed to reject an order.
type OrderRejecter interface {
	Reject(ctx context.Context, publicRef string) (domain.Order, error)
}

// CheckoutStarter is the minimal interface needed to start payment for an
// order.
type CheckoutStarter interface {
	Checkout(ctx context.Context, publicRef string, method domain.PaymentMethod) (app.CheckoutResult, error)
}

// HandleCreateOrder returns an HTTP handler for POST /orders.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.OrderLineInput, 0, len(req.Products))
		for _, line := range req.Products {
			lines = append(lines, app.OrderLineInput{
				ProductKey: line.ProductKey,
				Quantity:   line.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			Lines:     lines,
			CreatedBy: req.CreatedBy,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

// HandleOrder routes /orders/{publicRef} and its action subpaths.
func HandleOrder(reader OrderReader, assigner OrderAssigner, checkout CheckoutStarter, rejecter OrderRejecter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicRef, action, ok := parseOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			order, err := reader.GetByPublicReference(r.Context(), publicRef)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)
		case "assign":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req assignOrderRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			in := app.AssignInput{
				RFIDToken: req.RFIDToken,
				Email:     req.Email,
			}
			if req.Customer != nil {
				in.NewCustomer = &domain.Customer{
					Name:      req.Customer.Name,
					Email:     req.Customer.Email,
					Sub:       req.Customer.Sub,
					RFIDToken: req.Customer.RFIDToken,
				}
			}
			order, err := assigner.AssignCustomer(r.Context(), publicRef, in)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)
		case "checkout":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req checkoutRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			res, err := checkout.Checkout(r.Context(), publicRef, domain.PaymentMethod(req.Method))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := checkoutResponse{
				Order:       toOrderResponse(res.Order),
				RedirectURL: res.RedirectURL,
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case "reject":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			order, err := rejecter.Reject(r.Context(), publicRef)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func writeOrder(w http.ResponseWriter, order domain.Order) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

// parseOrderPath splits /orders/{publicRef} or /orders/{publicRef}/{action}.
func parseOrderPath(path string) (publicRef, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "orders" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		if parts[2] == "" {
			return "", "", false
		}
		return parts[1], parts[2], true
	}
	return parts[1], "", true
}

type orderLineRequest struct {
	ProductKey string `json:"product"`
	Quantity   int    `json:"quantity"`
}

type createOrderRequest struct {
	Products  []orderLineRequest `json:"products"`
	CreatedBy string             `json:"created_by,omitempty"`
}

type customerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Sub       string `json:"sub,omitempty"`
	RFIDToken string `json:"rfid_token,omitempty"`
}

type assignOrderRequest struct {
	RFIDToken string           `json:"rfid_token,omitempty"`
	Email     string           `json:"email,omitempty"`
	Customer  *customerRequest `json:"customer,omitempty"`
}

type checkoutRequest struct {
	Method string `json:"method"`
}

type checkoutResponse struct {
	Order       orderResponse `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

type orderLineResponse struct {
	ProductKey string `json:"product"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	VATRate    string `json:"vat_rate"`
	VATAmount  string `json:"vat_amount"`
	Quantity   int    `json:"quantity"`
}

type orderResponse struct {
	PublicReference string              `json:"public_reference"`
	Status          string              `json:"status"`
	Amount          string              `json:"amount"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	CreatedBy       string              `json:"created_by,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	Products        []orderLineResponse `json:"products"`
}

func toOrderResponse(order domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Products))
	for _, line := range order.Products {
		lines = append(lines, orderLineResponse{
			ProductKey: line.ProductKey,
			Title:      line.Title,
			Price:      line.Price.StringFixed(2),
			VATRate:    string(line.VATRate),
			VATAmount:  line.VATAmount.StringFixed(2),
			Quantity:   line.Quantity,
		})
	}
	return orderResponse{
		PublicReference: order.PublicReference,
		Status:          string(order.Status),
		Amount:          order.Amount.StringFixed(2),
		PaymentMethod:   string(order.PaymentMethod),
		CreatedBy:       order.CreatedBy,
		CreatedAt:       order.CreatedAt,
		PaidAt:          order.PaidAt,
		Products:        lines,
	}
}
