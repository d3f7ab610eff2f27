package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/ticket-office/internal/app"
	"github.com/cimillas/ticket-office/internal/domain"
)

// AdminProductService is the minimal interface needed for admin product
// endpoints.
type AdminProductService interface {
	CreateProduct(ctx context.Context, in app.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, key string, in app.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, key string) error
	GetProduct(ctx context.Context, key string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// HandleAdminProducts returns an HTTP handler for POST/GET /admin/products.
func HandleAdminProducts(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			products, err := svc.ListProducts(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]productResponse, 0, len(products))
			for _, product := range products {
				resp = append(resp, toProductResponse(product))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			in, ok := decodeProductInput(w, r)
			if !ok {
				return
			}
			product, err := svc.CreateProduct(r.Context(), in)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toProductResponse(product))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminProduct returns an HTTP handler for /admin/products/{key}.
func HandleAdminProduct(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := parseAdminKeyPath(r.URL.Path, "products")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			product, err := svc.GetProduct(r.Context(), key)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toProductResponse(product))
		case http.MethodPut:
			in, ok := decodeProductInput(w, r)
			if !ok {
				return
			}
			product, err := svc.UpdateProduct(r.Context(), key, in)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toProductResponse(product))
		case http.MethodDelete:
			if err := svc.DeleteProduct(r.Context(), key); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (app.ProductInput, bool) {
	var req productRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return app.ProductInput{}, false
	}

	cost, err := decimal.NewFromString(req.Cost)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid cost")
		return app.ProductInput{}, false
	}

	var sellStart, sellEnd time.Time
	if req.SellStart != "" {
		sellStart, err = time.Parse(time.RFC3339, req.SellStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid sell_start format")
			return app.ProductInput{}, false
		}
	}
	if req.SellEnd != "" {
		sellEnd, err = time.Parse(time.RFC3339, req.SellEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid sell_end format")
			return app.ProductInput{}, false
		}
	}

	return app.ProductInput{
		Title:              req.Title,
		Group:              req.Group,
		Cost:               cost,
		VATRate:            domain.VATRate(req.VATRate),
		MaxSold:            req.MaxSold,
		MaxSoldPerCustomer: req.MaxSoldPerCustomer,
		SellStart:          sellStart,
		SellEnd:            sellEnd,
	}, true
}

func parseAdminKeyPath(path, resource string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "admin" || parts[1] != resource {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type productRequest struct {
	Title              string `json:"title"`
	Group              string `json:"group"`
	Cost               string `json:"cost"`
	VATRate            string `json:"vat_rate"`
	MaxSold            *int   `json:"max_sold,omitempty"`
	MaxSoldPerCustomer *int   `json:"max_sold_per_customer,omitempty"`
	SellStart          string `json:"sell_start,omitempty"`
	SellEnd            string `json:"sell_end,omitempty"`
}

type productResponse struct {
	Key                string     `json:"key"`
	Title              string     `json:"title"`
	Group              string     `json:"group"`
	Cost               string     `json:"cost"`
	VATRate            string     `json:"vat_rate"`
	Sold               int        `json:"sold"`
	MaxSold            *int       `json:"max_sold,omitempty"`
	MaxSoldPerCustomer *int       `json:"max_sold_per_customer,omitempty"`
	SellStart          *time.Time `json:"sell_start,omitempty"`
	SellEnd            *time.Time `json:"sell_end,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toProductResponse(product domain.Product) productResponse {
	resp := productResponse{
		Key:                product.Key,
		Title:              product.Title,
		Group:              product.Group,
		Cost:               product.Cost.StringFixed(2),
		VATRate:            string(product.VATRate),
		Sold:               product.Sold,
		MaxSold:            product.MaxSold,
		MaxSoldPerCustomer: product.MaxSoldPerCustomer,
		CreatedAt:          product.CreatedAt,
	}
	if !product.SellStart.IsZero() {
		start := product.SellStart
		resp.SellStart = &start
	}
	if !product.SellEnd.IsZero() {
		end := product.SellEnd
		resp.SellEnd = &end
	}
	return resp
}
