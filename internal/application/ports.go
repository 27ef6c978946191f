package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopsphere/payments-core/internal/domain"
)

// GatewayClient is the port for the external payment gateway.
type GatewayClient interface {
	CreateAuthorization(ctx context.Context, req AuthorizationRequest) (*AuthorizationRef, error)
	RetrieveAuthorization(ctx context.Context, id string) (*AuthorizationSnapshot, error)
	CancelAuthorization(ctx context.Context, id string) error
	CreateCustomer(ctx context.Context, profile CustomerProfile) (string, error)

	// VerifyEvent authenticates and parses a raw webhook payload. The payload
	// bytes must be exactly what the gateway sent: signatures are computed
	// over the raw body.
	VerifyEvent(payload []byte, signature string) (*GatewayEvent, error)
}

type AuthorizationRequest struct {
	Amount      domain.Money
	CustomerRef string
	Metadata    map[string]string
	Shipping    *domain.Shipping

	// IdempotencyKey scopes gateway-side deduplication to one BeginPayment
	// call, so transport retries of the same call cannot mint two
	// authorizations.
	IdempotencyKey string
}

// AuthorizationRef identifies a freshly created gateway authorization.
// ClientSecret is the client-usable token for completing the payment; it is
// never the gateway's API secret.
type AuthorizationRef struct {
	ID           string
	ClientSecret string
}

// AuthorizationSnapshot is a point-in-time read of a gateway authorization.
// Informational only: snapshots never feed back into local order state.
type AuthorizationSnapshot struct {
	ID      string
	Status  string
	Amount  domain.Money
	Created time.Time
}

type CustomerProfile struct {
	Name  string
	Email string
}

// GatewayEvent is a verified (or, in low-trust mode, merely parsed) gateway
// notification, already translated into domain terms by the adapter.
type GatewayEvent struct {
	ID              string
	Type            string
	Category        domain.EventCategory // empty when the type is not one we act on
	AuthorizationID string
	OrderID         string // from authorization metadata, fallback resolution path
	Verified        bool
}

// OrderRepository is the port for the order store. All payment-state writes
// go through SetAuthorization or the conditional UpdatePaymentState; there is
// no unconditional field update.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*domain.Order, error)

	// SetAuthorization overwrites the order's authorization reference and
	// moves payment to PROCESSING with method CARD. Deliberately
	// unconditional: repeated BeginPayment calls orphan prior authorizations
	// at the gateway, which expires them on its own.
	SetAuthorization(ctx context.Context, orderID uuid.UUID, authorizationID string) error

	// UpdatePaymentState applies upd if and only if the order's current
	// payment status is in upd.Expected. Returns false when the guard did not
	// match; the record is untouched in that case.
	UpdatePaymentState(ctx context.Context, upd domain.PaymentStateUpdate) (bool, error)
}

// UserRepository reads and caches the gateway customer reference on user
// records.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// CacheGatewayCustomerID is last-writer-wins: concurrent first-time
	// customer creation may race, which is tolerated.
	CacheGatewayCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error
}

// LedgerRepository is the idempotency ledger over processed gateway events.
type LedgerRepository interface {
	Seen(ctx context.Context, eventID string) (bool, error)

	// Record inserts the event id atomically, returning false when another
	// worker already recorded it. This is the at-most-once guarantee under
	// concurrent redelivery.
	Record(ctx context.Context, eventID, effect string) (bool, error)

	// DeleteOlderThan prunes at most limit ledger entries processed before
	// cutoff, returning how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
