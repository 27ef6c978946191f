package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/payments-core/internal/domain"
	"github.com/shopsphere/payments-core/internal/infrastructure/persistence/postgres"
)

// CreateUser inserts a user row directly; the service layer never creates
// users, so there is no repository method for it.
func CreateUser(t *testing.T, ctx context.Context, db *postgres.DB) *domain.User {
	user := &domain.User{
		ID:    uuid.New(),
		Email: "user-" + uuid.NewString()[:8] + "@example.com",
		Name:  "Test User",
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`,
		user.ID, user.Email, user.Name,
	)
	require.NoError(t, err)

	return user
}

// CreateOrder builds a valid pending order for the user and persists it.
func CreateOrder(t *testing.T, ctx context.Context, db *postgres.DB, userID uuid.UUID) *domain.Order {
	order, err := domain.NewOrder(userID, 1999, time.Now().Add(72*time.Hour), domain.Shipping{
		Name:       "Test User",
		Line1:      "1 Test Street",
		City:       "Testville",
		PostalCode: "00000",
		Country:    "US",
	})
	require.NoError(t, err)

	repo := postgres.NewOrderRepository(db)
	require.NoError(t, repo.Create(ctx, order))

	return order
}
