package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/application/services"
	"github.com/shopsphere/payments-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type PaymentIntentServiceTestSuite struct {
	suite.Suite
	orders  *services.MockOrderRepository
	users   *services.MockUserRepository
	gateway *services.MockGateway
	service *services.PaymentIntentService

	user  *domain.User
	order *domain.Order
}

func TestPaymentIntentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentIntentServiceTestSuite))
}

func (suite *PaymentIntentServiceTestSuite) SetupTest() {
	suite.orders = services.NewMockOrderRepository()
	suite.users = services.NewMockUserRepository()
	suite.gateway = services.NewMockGateway()
	suite.service = services.NewPaymentIntentService(suite.orders, suite.users, suite.gateway, "usd", discardLogger())

	suite.user = &domain.User{
		ID:                uuid.New(),
		Email:             "ada@example.com",
		Name:              "Ada Lovelace",
		GatewayCustomerID: "cus_cached",
	}
	suite.users.Add(suite.user)

	order, err := domain.NewOrder(suite.user.ID, 1999, time.Now().Add(72*time.Hour), domain.Shipping{
		Name: "Ada Lovelace", Line1: "12 Analytical Way", City: "London", PostalCode: "N1 9GU", Country: "GB",
	})
	require.NoError(suite.T(), err)
	suite.order = order
	require.NoError(suite.T(), suite.orders.Create(context.Background(), order))
}

func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_Success() {
	t := suite.T()
	ctx := context.Background()

	var gotReq application.AuthorizationRequest
	suite.gateway.CreateAuthorizationFn = func(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
		gotReq = req
		return &application.AuthorizationRef{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
	}

	result, err := suite.service.BeginPayment(ctx, suite.order.ID, suite.user.ID)
	require.NoError(t, err)

	assert.Equal(t, "pi_1", result.AuthorizationID)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)
	assert.Equal(t, 19.99, result.Amount)
	assert.Equal(t, "usd", result.Currency)

	// Minor-unit conversion and metadata for the reconciler's fallback path.
	assert.Equal(t, int64(1999), gotReq.Amount.Cents)
	assert.Equal(t, suite.order.ID.String(), gotReq.Metadata["order_id"])
	assert.Equal(t, suite.order.Number, gotReq.Metadata["order_number"])
	assert.Equal(t, "cus_cached", gotReq.CustomerRef)
	require.NotNil(t, gotReq.Shipping)
	assert.Equal(t, "London", gotReq.Shipping.City)

	saved := suite.orders.Get(suite.order.ID)
	require.NotNil(t, saved.AuthorizationID)
	assert.Equal(t, "pi_1", *saved.AuthorizationID)
	assert.Equal(t, domain.PaymentProcessing, saved.PaymentStatus)
	assert.Equal(t, domain.MethodCard, saved.PaymentMethod)
}

func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_Preconditions() {
	t := suite.T()
	ctx := context.Background()

	tests := []struct {
		name         string
		mutate       func()
		missingOrder bool
		wrongUser    bool
		wantCode     string
	}{
		{
			name:         "order not found",
			mutate:       func() {},
			missingOrder: true,
			wantCode:     application.ErrCodeNotFound,
		},
		{
			name:      "order owned by someone else",
			mutate:    func() {},
			wrongUser: true,
			wantCode:  application.ErrCodeAuthorization,
		},
		{
			name: "already paid",
			mutate: func() {
				o := suite.orders.Get(suite.order.ID)
				o.PaymentStatus = domain.PaymentPaid
				suite.orders.Create(ctx, o)
			},
			wantCode: application.ErrCodeStateConflict,
		},
		{
			name: "cancelled order",
			mutate: func() {
				o := suite.orders.Get(suite.order.ID)
				o.OrderStatus = domain.OrderCancelled
				suite.orders.Create(ctx, o)
			},
			wantCode: application.ErrCodeStateConflict,
		},
		{
			name: "delivery date passed",
			mutate: func() {
				o := suite.orders.Get(suite.order.ID)
				o.DeliveryDate = time.Now().Add(-time.Hour)
				suite.orders.Create(ctx, o)
			},
			wantCode: application.ErrCodeStateConflict,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			tt.mutate()

			orderID := suite.order.ID
			if tt.missingOrder {
				orderID = uuid.New()
			}
			userID := suite.user.ID
			if tt.wrongUser {
				userID = uuid.New()
			}
			before := suite.orders.Get(orderID)

			_, err := suite.service.BeginPayment(ctx, orderID, userID)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, application.ToErrorCode(err))

			// Rejection must be side-effect free.
			assert.Equal(t, 0, suite.gateway.Calls("CreateAuthorization"))
			assert.Equal(t, before, suite.orders.Get(orderID))
		})
	}
}

func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_ReusesCachedCustomer() {
	t := suite.T()

	_, err := suite.service.BeginPayment(context.Background(), suite.order.ID, suite.user.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, suite.gateway.Calls("CreateCustomer"))
}

func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_CreatesAndCachesCustomer() {
	t := suite.T()
	ctx := context.Background()

	suite.user.GatewayCustomerID = ""
	suite.users.Add(suite.user)

	suite.gateway.CreateCustomerFn = func(ctx context.Context, profile application.CustomerProfile) (string, error) {
		assert.Equal(t, "ada@example.com", profile.Email)
		return "cus_fresh", nil
	}

	_, err := suite.service.BeginPayment(ctx, suite.order.ID, suite.user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, suite.gateway.Calls("CreateCustomer"))
	cached, err := suite.users.FindByID(ctx, suite.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_fresh", cached.GatewayCustomerID)
}

func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_GatewayFailurePropagates() {
	t := suite.T()

	suite.gateway.CreateAuthorizationFn = func(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
		return nil, application.NewGatewayError(errors.New("connection reset"))
	}

	_, err := suite.service.BeginPayment(context.Background(), suite.order.ID, suite.user.ID)
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeGateway, application.ToErrorCode(err))

	// Order keeps its pre-call state; nothing was linked.
	saved := suite.orders.Get(suite.order.ID)
	assert.Nil(t, saved.AuthorizationID)
	assert.Equal(t, domain.PaymentPending, saved.PaymentStatus)
}

// Repeated BeginPayment before completion replaces the linked authorization;
// the earlier one is orphaned at the gateway by design.
func (suite *PaymentIntentServiceTestSuite) Test_BeginPayment_RepeatedCallReplacesAuthorization() {
	t := suite.T()
	ctx := context.Background()

	ids := []string{"pi_first", "pi_second"}
	suite.gateway.CreateAuthorizationFn = func(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
		id := ids[suite.gateway.Calls("CreateAuthorization")-1]
		return &application.AuthorizationRef{ID: id, ClientSecret: id + "_secret"}, nil
	}

	_, err := suite.service.BeginPayment(ctx, suite.order.ID, suite.user.ID)
	require.NoError(t, err)
	_, err = suite.service.BeginPayment(ctx, suite.order.ID, suite.user.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, suite.gateway.Calls("CreateAuthorization"))
	saved := suite.orders.Get(suite.order.ID)
	require.NotNil(t, saved.AuthorizationID)
	assert.Equal(t, "pi_second", *saved.AuthorizationID)
}
