package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/application/services"
	"github.com/shopsphere/payments-core/internal/interfaces/rest"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/middleware"
)

type paymentStatusResponse struct {
	Success bool              `json:"success"`
	Data    paymentStatusData `json:"data"`
}

type paymentStatusData struct {
	OrderID       string     `json:"orderId"`
	OrderNumber   string     `json:"orderNumber"`
	PaymentStatus string     `json:"paymentStatus"`
	OrderStatus   string     `json:"orderStatus"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	IsPaid        bool       `json:"isPaid"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`

	Live            *liveAuthorization `json:"live,omitempty"`
	LiveUnavailable bool               `json:"liveUnavailable,omitempty"`
}

type liveAuthorization struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// GetPaymentStatus returns the order's payment view; owners and admins only.
func (h *Handlers) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.status.GetStatus(ctx, orderID, userID, middleware.IsAdmin(ctx))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, paymentStatusResponse{
		Success: true,
		Data:    toStatusData(view),
	}, http.StatusOK)
}

func toStatusData(view *services.PaymentStatusView) paymentStatusData {
	data := paymentStatusData{
		OrderID:         view.OrderID.String(),
		OrderNumber:     view.OrderNumber,
		PaymentStatus:   string(view.PaymentStatus),
		OrderStatus:     string(view.OrderStatus),
		PaymentMethod:   string(view.PaymentMethod),
		IsPaid:          view.IsPaid,
		PaidAt:          view.PaidAt,
		LiveUnavailable: view.LiveUnavailable,
	}
	if view.Live != nil {
		data.Live = &liveAuthorization{
			ID:       view.Live.ID,
			Status:   view.Live.Status,
			Amount:   view.Live.Amount.Major(),
			Currency: view.Live.Amount.Currency,
		}
	}
	return data
}
