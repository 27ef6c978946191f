package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/application/services"
	"github.com/shopsphere/payments-core/internal/domain"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/handlers"
)

const testJWTSecret = "test-secret"

type fixture struct {
	router  chi.Router
	orders  *services.MockOrderRepository
	users   *services.MockUserRepository
	ledger  *services.MockLedger
	gateway *services.MockGateway

	user  *domain.User
	order *domain.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orders := services.NewMockOrderRepository()
	users := services.NewMockUserRepository()
	ledger := services.NewMockLedger()
	gateway := services.NewMockGateway()

	h := handlers.NewHandlers(
		services.NewPaymentIntentService(orders, users, gateway, "usd", logger),
		services.NewWebhookReconciler(orders, ledger, gateway, logger),
		services.NewStatusService(orders, gateway, logger),
		"pk_test_123",
		testJWTSecret,
		logger,
	)

	router := chi.NewRouter()
	h.Routes(router)

	user := &domain.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", GatewayCustomerID: "cus_1"}
	users.Add(user)

	order, err := domain.NewOrder(user.ID, 1999, time.Now().Add(72*time.Hour), domain.Shipping{
		Name: "Ada", Line1: "12 Analytical Way", City: "London", PostalCode: "N1 9GU", Country: "GB",
	})
	require.NoError(t, err)
	require.NoError(t, orders.Create(context.Background(), order))

	return &fixture{
		router:  router,
		orders:  orders,
		users:   users,
		ledger:  ledger,
		gateway: gateway,
		user:    user,
		order:   order,
	}
}

func bearerToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *fixture) do(t *testing.T, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestBeginPayment_Success(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/orders/"+f.order.ID.String()+"/payment",
		bearerToken(t, f.user.ID, ""), "")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"clientSecret":"pi_mock_1_secret"`)
	assert.Contains(t, rr.Body.String(), `"publishableKey":"pk_test_123"`)
	assert.Contains(t, rr.Body.String(), `"amount":19.99`)
}

func TestBeginPayment_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/orders/"+f.order.ID.String()+"/payment", "", "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, f.gateway.Calls("CreateAuthorization"))
}

func TestBeginPayment_RejectsForeignOrder(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/orders/"+f.order.ID.String()+"/payment",
		bearerToken(t, uuid.New(), ""), "")

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeAuthorization)
}

func TestBeginPayment_MalformedOrderID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/orders/not-a-uuid/payment",
		bearerToken(t, f.user.ID, ""), "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBeginPayment_ConflictWhenAlreadyPaid(t *testing.T) {
	f := newFixture(t)

	o := f.orders.Get(f.order.ID)
	o.PaymentStatus = domain.PaymentPaid
	require.NoError(t, f.orders.Create(context.Background(), o))

	rr := f.do(t, http.MethodPost, "/api/v1/orders/"+f.order.ID.String()+"/payment",
		bearerToken(t, f.user.ID, ""), "")

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeStateConflict)
}

func TestGetPaymentStatus_Success(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/orders/"+f.order.ID.String()+"/payment",
		bearerToken(t, f.user.ID, ""), "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"paymentStatus":"PENDING"`)
	assert.Contains(t, rr.Body.String(), f.order.Number)
}

func TestGetPaymentStatus_AdminAccess(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/orders/"+f.order.ID.String()+"/payment",
		bearerToken(t, uuid.New(), "admin"), "")

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetPaymentStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"/payment",
		bearerToken(t, f.user.ID, ""), "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleWebhook_AcksEvent(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/webhooks/payment", "", `{"id":"evt_1"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"received":true`)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	f := newFixture(t)

	f.gateway.VerifyEventFn = func(payload []byte, signature string) (*application.GatewayEvent, error) {
		return nil, application.NewSignatureInvalidError(errors.New("no valid signature"))
	}

	rr := f.do(t, http.MethodPost, "/api/v1/webhooks/payment", "", `{"id":"evt_1"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeSignatureInvalid)
}

// A body that fails to parse in low-trust mode is acked so the gateway stops
// redelivering it; 4xx is reserved for signature failure.
func TestHandleWebhook_UnparseableBodyStillAcks(t *testing.T) {
	f := newFixture(t)

	f.gateway.VerifyEventFn = func(payload []byte, signature string) (*application.GatewayEvent, error) {
		return nil, application.NewValidationError(errors.New("malformed event payload"))
	}

	rr := f.do(t, http.MethodPost, "/api/v1/webhooks/payment", "", `not json`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"received":true`)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}
