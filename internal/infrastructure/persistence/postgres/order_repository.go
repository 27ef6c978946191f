package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/domain"
)

const orderColumns = `
	id, number, user_id, amount_cents, payment_method, payment_status, order_status,
	authorization_id, is_paid, paid_at, delivery_date,
	ship_name, ship_line1, ship_city, ship_postal_code, ship_country,
	created_at, updated_at
`

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) application.OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, number, user_id, amount_cents, payment_method, payment_status, order_status,
			authorization_id, is_paid, paid_at, delivery_date,
			ship_name, ship_line1, ship_city, ship_postal_code, ship_country,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	m := toOrderModel(order)
	_, err := r.db.Pool.Exec(ctx, query,
		m.ID,
		m.Number,
		m.UserID,
		m.AmountCents,
		m.PaymentMethod,
		m.PaymentStatus,
		m.OrderStatus,
		m.AuthorizationID,
		m.IsPaid,
		m.PaidAt,
		m.DeliveryDate,
		m.ShipName,
		m.ShipLine1,
		m.ShipCity,
		m.ShipPostalCode,
		m.ShipCountry,
		m.CreatedAt,
		m.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanOrder(row)
}

func (r *OrderRepository) FindByAuthorizationID(ctx context.Context, authorizationID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE authorization_id = $1`

	row := r.db.Pool.QueryRow(ctx, query, authorizationID)
	return scanOrder(row)
}

// SetAuthorization links a fresh authorization and moves payment to
// PROCESSING with method CARD. Unconditional: a repeat call overwrites the
// previous link.
func (r *OrderRepository) SetAuthorization(ctx context.Context, orderID uuid.UUID, authorizationID string) error {
	query := `
		UPDATE orders
		SET authorization_id = $2,
			payment_method = $3,
			payment_status = $4,
			updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, orderID, authorizationID,
		string(domain.MethodCard), string(domain.PaymentProcessing))
	if err != nil {
		return fmt.Errorf("failed to set authorization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// UpdatePaymentState is the single conditional write behind all
// webhook-driven transitions. The guard and effects mirror
// domain.PaymentStateUpdate.Apply, executed atomically in one statement:
// is_paid tracks the target, paid_at is set only when the order becomes PAID
// and kept across a refund, and fulfillment advances to CONFIRMED only from
// PENDING.
func (r *OrderRepository) UpdatePaymentState(ctx context.Context, upd domain.PaymentStateUpdate) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = $2,
			authorization_id = COALESCE($3, authorization_id),
			is_paid = $4,
			paid_at = CASE WHEN $4 THEN now() ELSE paid_at END,
			order_status = CASE WHEN $4 AND order_status = 'PENDING' THEN 'CONFIRMED' ELSE order_status END,
			updated_at = now()
		WHERE id = $1 AND payment_status = ANY($5)
	`

	expected := make([]string, len(upd.Expected))
	for i, s := range upd.Expected {
		expected[i] = string(s)
	}
	becomesPaid := upd.Target == domain.PaymentPaid

	tag, err := r.db.Pool.Exec(ctx, query,
		upd.OrderID,
		string(upd.Target),
		upd.AuthorizationID,
		becomesPaid,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment state: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// scanOrder converts a database row into a domain Order.
// Returns domain.ErrOrderNotFound if the row doesn't exist.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.ID, &m.Number, &m.UserID, &m.AmountCents, &m.PaymentMethod, &m.PaymentStatus, &m.OrderStatus,
		&m.AuthorizationID, &m.IsPaid, &m.PaidAt, &m.DeliveryDate,
		&m.ShipName, &m.ShipLine1, &m.ShipCity, &m.ShipPostalCode, &m.ShipCountry,
		&m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toOrderDomain(m), nil
}
