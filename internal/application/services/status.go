package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/domain"
)

// StatusService is the read path: local payment state, optionally alongside a
// live gateway view. It never writes; only the orchestrator and the
// reconciler mutate payment state.
type StatusService struct {
	orders  application.OrderRepository
	gateway application.GatewayClient
	logger  *slog.Logger
}

func NewStatusService(orders application.OrderRepository, gateway application.GatewayClient, logger *slog.Logger) *StatusService {
	return &StatusService{orders: orders, gateway: gateway, logger: logger}
}

type PaymentStatusView struct {
	OrderID       uuid.UUID
	OrderNumber   string
	PaymentStatus domain.PaymentStatus
	OrderStatus   domain.OrderStatus
	PaymentMethod domain.PaymentMethod
	IsPaid        bool
	PaidAt        *time.Time

	// Live is the gateway's current view of the authorization, when one
	// exists and the lookup succeeded. Informational only.
	Live            *application.AuthorizationSnapshot
	LiveUnavailable bool
}

// GetStatus returns the order's local payment view and, when an authorization
// exists, the gateway's live view. The requester must own the order or be an
// administrator. A failed live lookup degrades to local-only rather than
// failing the request.
func (s *StatusService) GetStatus(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*PaymentStatusView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, application.NewNotFoundError("order", err)
		}
		return nil, application.NewInternalError(err)
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, application.NewAuthorizationError("order does not belong to this user")
	}

	view := &PaymentStatusView{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
	}

	if order.AuthorizationID == nil {
		return view, nil
	}

	snapshot, err := s.gateway.RetrieveAuthorization(ctx, *order.AuthorizationID)
	if err != nil {
		s.logger.Warn("live authorization lookup failed, returning local view only",
			"order_id", order.ID,
			"authorization_id", *order.AuthorizationID,
			"error", err,
		)
		view.LiveUnavailable = true
		return view, nil
	}

	view.Live = snapshot
	return view, nil
}
