package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/config"
	"github.com/shopsphere/payments-core/internal/domain"
)

// StripeGateway implements application.GatewayClient on top of the Stripe API.
// The API client is constructed here and held by the instance; nothing touches
// the package-global stripe key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *slog.Logger
}

func NewStripeGateway(cfg config.GatewayConfig, logger *slog.Logger) application.GatewayClient {
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

func (g *StripeGateway) CreateAuthorization(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Cents),
		Currency: stripe.String(req.Amount.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}
	if req.CustomerRef != "" {
		params.Customer = stripe.String(req.CustomerRef)
	}
	if req.Shipping != nil {
		params.Shipping = shippingParams(req.Shipping)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, application.NewGatewayError(fmt.Errorf("create payment intent: %w", err))
	}

	return &application.AuthorizationRef{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (g *StripeGateway) RetrieveAuthorization(ctx context.Context, id string) (*application.AuthorizationSnapshot, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, application.NewGatewayError(fmt.Errorf("retrieve payment intent %s: %w", id, err))
	}

	return &application.AuthorizationSnapshot{
		ID:      intent.ID,
		Status:  string(intent.Status),
		Amount:  domain.Money{Cents: intent.Amount, Currency: string(intent.Currency)},
		Created: time.Unix(intent.Created, 0),
	}, nil
}

func (g *StripeGateway) CancelAuthorization(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		return application.NewGatewayError(fmt.Errorf("cancel payment intent %s: %w", id, err))
	}
	return nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, profile application.CustomerProfile) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(profile.Name),
		Email: stripe.String(profile.Email),
	}
	params.Context = ctx

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return "", application.NewGatewayError(fmt.Errorf("create customer: %w", err))
	}
	return cus.ID, nil
}

// VerifyEvent authenticates and decodes a raw webhook delivery. Without a
// signing secret configured the payload is accepted as-is and the event is
// flagged unverified.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*application.GatewayEvent, error) {
	var event stripe.Event
	verified := false

	if g.webhookSecret != "" {
		// Accounts pin their own API version, which rarely matches the version
		// this SDK release was generated against. The signature check is what
		// authenticates the delivery; a version mismatch must not reject it.
		ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, application.NewSignatureInvalidError(err)
		}
		event = ev
		verified = true
	} else {
		g.logger.Warn("no webhook signing secret configured, accepting event unverified")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, application.NewValidationError(fmt.Errorf("malformed event payload: %w", err))
		}
	}

	return g.toGatewayEvent(event, verified)
}

// toGatewayEvent maps Stripe event types onto reconciliation categories.
// Types outside the mapping come back with an empty category and are acked
// upstream without effect.
func (g *StripeGateway) toGatewayEvent(event stripe.Event, verified bool) (*application.GatewayEvent, error) {
	ge := &application.GatewayEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Verified: verified,
	}

	switch string(event.Type) {
	case "payment_intent.created":
		ge.Category = domain.EventAuthorizationCreated
	case "payment_intent.succeeded":
		ge.Category = domain.EventAuthorizationSucceeded
	case "payment_intent.payment_failed":
		ge.Category = domain.EventAuthorizationFailed
	case "payment_intent.canceled":
		ge.Category = domain.EventAuthorizationCanceled
	case "charge.refunded":
		ge.Category = domain.EventChargeRefunded
	default:
		return ge, nil
	}

	if ge.Category == domain.EventChargeRefunded {
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, application.NewValidationError(fmt.Errorf("decode charge from event %s: %w", event.ID, err))
		}
		if ch.PaymentIntent != nil {
			ge.AuthorizationID = ch.PaymentIntent.ID
		}
		ge.OrderID = ch.Metadata["order_id"]
		return ge, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, application.NewValidationError(fmt.Errorf("decode payment intent from event %s: %w", event.ID, err))
	}
	ge.AuthorizationID = pi.ID
	ge.OrderID = pi.Metadata["order_id"]
	return ge, nil
}

func shippingParams(s *domain.Shipping) *stripe.ShippingDetailsParams {
	return &stripe.ShippingDetailsParams{
		Name: stripe.String(s.Name),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(s.Line1),
			City:       stripe.String(s.City),
			PostalCode: stripe.String(s.PostalCode),
			Country:    stripe.String(s.Country),
		},
	}
}
