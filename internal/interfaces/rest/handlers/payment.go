package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/interfaces/rest"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/middleware"
)

type beginPaymentResponse struct {
	Success bool             `json:"success"`
	Data    beginPaymentData `json:"data"`
}

type beginPaymentData struct {
	ClientSecret    string  `json:"clientSecret"`
	AuthorizationID string  `json:"authorizationId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	PublishableKey  string  `json:"publishableKey"`
}

// BeginPayment starts card payment on the caller's own order.
func (h *Handlers) BeginPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		rest.WriteError(w, application.NewValidationError(err))
		return
	}

	userID, ok := middleware.UserID(ctx)
	if !ok {
		rest.WriteError(w, application.NewAuthorizationError("not authenticated"))
		return
	}

	result, err := h.intents.BeginPayment(ctx, orderID, userID)
	if err != nil {
		h.logger.Warn("begin payment rejected", "order_id", orderID, "error", err)
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, beginPaymentResponse{
		Success: true,
		Data: beginPaymentData{
			ClientSecret:    result.ClientSecret,
			AuthorizationID: result.AuthorizationID,
			Amount:          result.Amount,
			Currency:        result.Currency,
			PublishableKey:  h.publishableKey,
		},
	}, http.StatusCreated)
}
