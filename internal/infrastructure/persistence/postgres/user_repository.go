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

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) application.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, name, gateway_customer_id
		FROM users WHERE id = $1
	`

	var m UserModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Email, &m.Name, &m.GatewayCustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return toUserDomain(m), nil
}

// CacheGatewayCustomerID is last-writer-wins; a lost race leaves a stray
// gateway customer behind, which is tolerated.
func (r *UserRepository) CacheGatewayCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error {
	query := `UPDATE users SET gateway_customer_id = $2 WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, userID, customerID)
	if err != nil {
		return fmt.Errorf("failed to cache gateway customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
