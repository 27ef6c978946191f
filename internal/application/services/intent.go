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

// PaymentIntentService creates gateway authorizations for orders and links
// them onto the order record.
type PaymentIntentService struct {
	orders   application.OrderRepository
	users    application.UserRepository
	gateway  application.GatewayClient
	currency string
	logger   *slog.Logger
}

func NewPaymentIntentService(
	orders application.OrderRepository,
	users application.UserRepository,
	gateway application.GatewayClient,
	currency string,
	logger *slog.Logger,
) *PaymentIntentService {
	return &PaymentIntentService{
		orders:   orders,
		users:    users,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

type PaymentIntentResult struct {
	ClientSecret    string
	AuthorizationID string
	Amount          float64
	Currency        string
}

// BeginPayment validates the order, resolves the gateway customer, creates a
// fresh authorization and persists the reference on the order. Every failing
// precondition aborts before any gateway call, so rejection has no side
// effects.
//
// Repeated calls on the same order before completion create a new
// authorization each time and overwrite the link; prior authorizations are
// orphaned at the gateway, which expires unused ones on its own.
func (s *PaymentIntentService) BeginPayment(ctx context.Context, orderID, userID uuid.UUID) (*PaymentIntentResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, application.NewNotFoundError("order", err)
		}
		return nil, application.NewInternalError(err)
	}

	if order.UserID != userID {
		return nil, application.NewAuthorizationError("order does not belong to this user")
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return nil, application.NewStateConflictError("order is already paid")
	}
	if order.OrderStatus == domain.OrderCancelled {
		return nil, application.NewStateConflictError("order is cancelled")
	}
	if order.DeliveryDate.Before(time.Now()) {
		return nil, application.NewStateConflictError("delivery date has passed")
	}

	customerRef, err := s.resolveCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.NewMoney(order.AmountCents, s.currency)
	if err != nil {
		return nil, application.NewValidationError(err)
	}

	ref, err := s.gateway.CreateAuthorization(ctx, application.AuthorizationRequest{
		Amount:      amount,
		CustomerRef: customerRef,
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.Number,
		},
		Shipping:       &order.Shipping,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetAuthorization(ctx, order.ID, ref.ID); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment authorization created",
		"order_id", order.ID,
		"order_number", order.Number,
		"authorization_id", ref.ID,
		"amount_cents", amount.Cents,
	)

	return &PaymentIntentResult{
		ClientSecret:    ref.ClientSecret,
		AuthorizationID: ref.ID,
		Amount:          amount.Major(),
		Currency:        amount.Currency,
	}, nil
}

// resolveCustomer returns the cached gateway customer id, creating and
// caching one on first use. Concurrent first-time calls may both create a
// customer; the cache write is last-writer-wins and the stray customer is
// harmless, so no stronger coordination is attempted.
func (s *PaymentIntentService) resolveCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", application.NewNotFoundError("user", err)
		}
		return "", application.NewInternalError(err)
	}

	if user.GatewayCustomerID != "" {
		return user.GatewayCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, application.CustomerProfile{
		Name:  user.Name,
		Email: user.Email,
	})
	if err != nil {
		return "", err
	}

	if err := s.users.CacheGatewayCustomerID(ctx, userID, customerID); err != nil {
		return "", application.NewInternalError(err)
	}

	s.logger.Info("gateway customer created", "user_id", userID, "customer_id", customerID)
	return customerID, nil
}
