package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/domain"
)

// WebhookReconciler applies gateway event notifications onto order payment
// state. Delivery is at-least-once and unordered; the ledger plus the
// conditional order update together guarantee at most one business effect per
// event id.
type WebhookReconciler struct {
	orders  application.OrderRepository
	ledger  application.LedgerRepository
	gateway application.GatewayClient
	logger  *slog.Logger
}

func NewWebhookReconciler(
	orders application.OrderRepository,
	ledger application.LedgerRepository,
	gateway application.GatewayClient,
	logger *slog.Logger,
) *WebhookReconciler {
	return &WebhookReconciler{
		orders:  orders,
		ledger:  ledger,
		gateway: gateway,
		logger:  logger,
	}
}

// HandleEvent verifies, deduplicates and applies one raw webhook delivery.
// A nil return means "acked": duplicates, unresolvable events and ignored
// transitions all ack, since the gateway would only redeliver them. Errors
// are returned only for authenticity failures and transient infrastructure
// failures where redelivery can help.
func (r *WebhookReconciler) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := r.gateway.VerifyEvent(payload, signature)
	if err != nil {
		if svcErr, ok := application.IsServiceError(err); ok && svcErr.Code == application.ErrCodeValidation {
			// Unparseable in low-trust mode. Redelivery resends the same bytes,
			// so ack it; only authenticity failures reject.
			r.logger.Warn("discarding unparseable event payload", "error", err)
			return nil
		}
		return err
	}
	if !event.Verified {
		r.logger.Warn("processing unverified event, no signing secret configured", "event_id", event.ID, "type", event.Type)
	}

	seen, err := r.ledger.Seen(ctx, event.ID)
	if err != nil {
		return application.NewInternalError(err)
	}
	if seen {
		r.logger.Info("duplicate event delivery, no-op", "event_id", event.ID)
		return nil
	}

	if event.Category == "" {
		r.record(ctx, event.ID, domain.EffectIgnored)
		r.logger.Info("event type not handled", "event_id", event.ID, "type", event.Type)
		return nil
	}

	order, err := r.resolveOrder(ctx, event)
	if err != nil {
		return application.NewInternalError(err)
	}
	if order == nil {
		r.record(ctx, event.ID, domain.EffectUnresolved)
		r.logger.Warn("event does not match any order",
			"event_id", event.ID,
			"authorization_id", event.AuthorizationID,
			"metadata_order_id", event.OrderID,
		)
		return nil
	}

	transition, ok := domain.TransitionFor(event.Category)
	if !ok {
		r.record(ctx, event.ID, domain.EffectIgnored)
		return nil
	}

	if !transition.AllowsFrom(order.PaymentStatus) {
		r.record(ctx, event.ID, domain.EffectNoop)
		r.logger.Info("transition not applicable, ignoring event",
			"event_id", event.ID,
			"category", event.Category,
			"payment_status", order.PaymentStatus,
		)
		return nil
	}

	upd := domain.PaymentStateUpdate{
		OrderID:  order.ID,
		Expected: transition.Sources,
		Target:   transition.Target,
	}
	if event.AuthorizationID != "" {
		upd.AuthorizationID = &event.AuthorizationID
	}

	applied, err := r.orders.UpdatePaymentState(ctx, upd)
	if err != nil {
		// Returned to the caller so the gateway redelivers; the ledger entry
		// is deliberately not written yet.
		return application.NewInternalError(err)
	}

	effect := domain.EffectApplied
	if !applied {
		// A concurrent writer moved the order between our read and the
		// conditional update. The guard held, so nothing was corrupted.
		effect = domain.EffectNoop
	}
	r.record(ctx, event.ID, effect)

	r.logger.Info("event reconciled",
		"event_id", event.ID,
		"category", event.Category,
		"order_id", order.ID,
		"effect", effect,
		"payment_status", transition.Target,
	)
	return nil
}

// resolveOrder locates the event's target: by authorization id first, then by
// the order id embedded in authorization metadata. The fallback covers the
// race where the webhook lands before the orchestrator's authorization write
// commits. A nil, nil return means unresolvable.
func (r *WebhookReconciler) resolveOrder(ctx context.Context, event *application.GatewayEvent) (*domain.Order, error) {
	if event.AuthorizationID != "" {
		order, err := r.orders.FindByAuthorizationID(ctx, event.AuthorizationID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, fmt.Errorf("lookup by authorization id: %w", err)
		}
	}

	if event.OrderID == "" {
		return nil, nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		r.logger.Warn("event metadata carries malformed order id", "event_id", event.ID, "order_id", event.OrderID)
		return nil, nil
	}

	order, err := r.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup by metadata order id: %w", err)
	}
	return order, nil
}

// record writes the ledger entry. Failure after a successful order update is
// logged and swallowed: the order state is already correct, and a future
// redelivery re-runs a conditional update that tolerates it.
func (r *WebhookReconciler) record(ctx context.Context, eventID, effect string) {
	if _, err := r.ledger.Record(ctx, eventID, effect); err != nil {
		r.logger.Error("failed to record processed event", "event_id", eventID, "effect", effect, "error", err)
	}
}
