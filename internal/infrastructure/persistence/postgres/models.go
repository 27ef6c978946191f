package postgres

import (
	"time"

	"github.com/google/uuid"
)

// OrderModel mirrors the orders table row layout.
type OrderModel struct {
	ID              uuid.UUID
	Number          string
	UserID          uuid.UUID
	AmountCents     int64
	PaymentMethod   string
	PaymentStatus   string
	OrderStatus     string
	AuthorizationID *string
	IsPaid          bool
	PaidAt          *time.Time
	DeliveryDate    time.Time
	ShipName        string
	ShipLine1       string
	ShipCity        string
	ShipPostalCode  string
	ShipCountry     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UserModel struct {
	ID                uuid.UUID
	Email             string
	Name              string
	GatewayCustomerID *string
}
