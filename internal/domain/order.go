// Package domain encodes the order aggregate and its payment lifecycle.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of an order's payment in its lifecycle
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// OrderStatus tracks fulfillment, independently of payment.
type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderPacked         OrderStatus = "PACKED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	MethodUnset PaymentMethod = ""
	MethodCOD   PaymentMethod = "COD"
	MethodCard  PaymentMethod = "CARD"
)

// Shipping is the delivery destination forwarded to the gateway.
type Shipping struct {
	Name       string
	Line1      string
	City       string
	PostalCode string
	Country    string
}

type Order struct {
	ID     uuid.UUID
	Number string
	UserID uuid.UUID

	AmountCents   int64
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus

	// AuthorizationID references the gateway authorization object. Unique
	// across orders when present.
	AuthorizationID *string

	IsPaid bool
	PaidAt *time.Time

	DeliveryDate time.Time
	Shipping     Shipping

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(userID uuid.UUID, amountCents int64, deliveryDate time.Time, shipping Shipping) (*Order, error) {
	if userID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("user ID")
	}
	if amountCents < 0 {
		return nil, NewInvalidAmountError(amountCents)
	}

	now := time.Now()
	return &Order{
		ID:            uuid.New(),
		Number:        NewOrderNumber(),
		UserID:        userID,
		AmountCents:   amountCents,
		PaymentMethod: MethodUnset,
		PaymentStatus: PaymentPending,
		OrderStatus:   OrderPending,
		DeliveryDate:  deliveryDate,
		Shipping:      shipping,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewOrderNumber generates a human-readable order number. The timestamp
// component distinguishes orders by creation time; the random suffix breaks
// ties within the same second.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}

// EventCategory classifies gateway notifications into the transitions they
// are allowed to make.
type EventCategory string

const (
	EventAuthorizationCreated   EventCategory = "authorization.created"
	EventAuthorizationSucceeded EventCategory = "authorization.succeeded"
	EventAuthorizationFailed    EventCategory = "authorization.failed"
	EventAuthorizationCanceled  EventCategory = "authorization.canceled"
	EventChargeRefunded         EventCategory = "charge.refunded"
)

// Transition describes the state change an event category may apply: the
// payment statuses it is valid from and the status it lands on.
type Transition struct {
	Sources []PaymentStatus
	Target  PaymentStatus
}

func (t Transition) AllowsFrom(s PaymentStatus) bool {
	return slices.Contains(t.Sources, s)
}

// TransitionFor returns the transition an event category is allowed to make.
// Events applied from a source state outside Sources are ignored, never
// errors: redelivery and reordering are expected, and a late "failed" event
// must not regress a paid order.
func TransitionFor(cat EventCategory) (Transition, bool) {
	switch cat {
	case EventAuthorizationCreated:
		return Transition{Sources: []PaymentStatus{PaymentPending, PaymentFailed}, Target: PaymentProcessing}, true
	case EventAuthorizationSucceeded:
		return Transition{Sources: []PaymentStatus{PaymentProcessing, PaymentPending}, Target: PaymentPaid}, true
	case EventAuthorizationFailed:
		return Transition{Sources: []PaymentStatus{PaymentProcessing}, Target: PaymentFailed}, true
	case EventAuthorizationCanceled:
		return Transition{Sources: []PaymentStatus{PaymentProcessing}, Target: PaymentFailed}, true
	case EventChargeRefunded:
		return Transition{Sources: []PaymentStatus{PaymentPaid}, Target: PaymentRefunded}, true
	}
	return Transition{}, false
}

// PaymentStateUpdate is the single conditional write primitive for order
// payment state. It succeeds only when the order's current payment status is
// one of Expected; otherwise it must leave the record untouched.
type PaymentStateUpdate struct {
	OrderID  uuid.UUID
	Expected []PaymentStatus
	Target   PaymentStatus

	// AuthorizationID, when set, records the gateway authorization reference
	// carried by the event (heals the race where the webhook lands before the
	// orchestrator's write commits).
	AuthorizationID *string
}

// Apply mutates o per the update and reports whether it was applied. This is
// the reference semantics the SQL conditional update mirrors: IsPaid holds
// iff the payment status is PAID, and a successful payment confirms a still
// pending order.
func (u PaymentStateUpdate) Apply(o *Order, now time.Time) bool {
	if !slices.Contains(u.Expected, o.PaymentStatus) {
		return false
	}

	o.PaymentStatus = u.Target
	if u.AuthorizationID != nil {
		o.AuthorizationID = u.AuthorizationID
	}

	o.IsPaid = u.Target == PaymentPaid
	if u.Target == PaymentPaid {
		o.PaidAt = &now
		if o.OrderStatus == OrderPending {
			o.OrderStatus = OrderConfirmed
		}
	}

	o.UpdatedAt = now
	return true
}

// TerminalForPayment reports whether no further payment transitions are
// possible for the order.
func (o *Order) TerminalForPayment() bool {
	return o.PaymentStatus == PaymentRefunded || o.OrderStatus == OrderCancelled
}
