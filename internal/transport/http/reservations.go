package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cimillas/ticket-office/internal/app"
	"github.com/cimillas/ticket-office/internal/domain"
)

// ReservationCreator is the minimal interface needed to create staff holds.
type ReservationCreator interface {
	CreateReservationOrder(ctx context.Context, in app.CreateOrderInput, customerEmail string) (domain.Order, error)
}

type createReservationRequest struct {
	Products      []orderLineRequest `json:"products"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CreatedBy     string             `json:"created_by,omitempty"`
}

// HandleCreateReservation returns an HTTP handler for POST /admin/reservations.
// The resulting order holds its inventory without a payment flow.
func HandleCreateReservation(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
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

		order, err := svc.CreateReservationOrder(r.Context(), app.CreateOrderInput{
			Lines:     lines,
			CreatedBy: req.CreatedBy,
		}, req.CustomerEmail)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}
