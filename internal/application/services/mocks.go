package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/domain"
)

// In-memory ports used by the service tests. Thread-safe so concurrency
// scenarios exercise the same guarantees the postgres implementations give.

// MockOrderRepository
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order

	FindByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByAuthorizationIDFn func(ctx context.Context, authID string) (*domain.Order, error)
	SetAuthorizationFn      func(ctx context.Context, orderID uuid.UUID, authID string) error
	UpdatePaymentStateFn    func(ctx context.Context, upd domain.PaymentStateUpdate) (bool, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) FindByAuthorizationID(ctx context.Context, authID string) (*domain.Order, error) {
	if m.FindByAuthorizationIDFn != nil {
		return m.FindByAuthorizationIDFn(ctx, authID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.AuthorizationID != nil && *o.AuthorizationID == authID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) SetAuthorization(ctx context.Context, orderID uuid.UUID, authID string) error {
	if m.SetAuthorizationFn != nil {
		return m.SetAuthorizationFn(ctx, orderID, authID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.AuthorizationID = &authID
	o.PaymentStatus = domain.PaymentProcessing
	o.PaymentMethod = domain.MethodCard
	o.UpdatedAt = time.Now()
	return nil
}

func (m *MockOrderRepository) UpdatePaymentState(ctx context.Context, upd domain.PaymentStateUpdate) (bool, error) {
	if m.UpdatePaymentStateFn != nil {
		return m.UpdatePaymentStateFn(ctx, upd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[upd.OrderID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	return upd.Apply(o, time.Now()), nil
}

// Get returns the stored order for assertions.
func (m *MockOrderRepository) Get(id uuid.UUID) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

// MockUserRepository
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User

	FindByIDFn               func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CacheGatewayCustomerIDFn func(ctx context.Context, userID uuid.UUID, customerID string) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *MockUserRepository) Add(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) CacheGatewayCustomerID(ctx context.Context, userID uuid.UUID, customerID string) error {
	if m.CacheGatewayCustomerIDFn != nil {
		return m.CacheGatewayCustomerIDFn(ctx, userID, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.GatewayCustomerID = customerID
	}
	return nil
}

// MockLedger
type MockLedger struct {
	mu      sync.Mutex
	entries map[string]string

	SeenFn            func(ctx context.Context, eventID string) (bool, error)
	RecordFn          func(ctx context.Context, eventID, effect string) (bool, error)
	DeleteOlderThanFn func(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

func NewMockLedger() *MockLedger {
	return &MockLedger{entries: make(map[string]string)}
}

func (m *MockLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.SeenFn != nil {
		return m.SeenFn(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[eventID]
	return ok, nil
}

func (m *MockLedger) Record(ctx context.Context, eventID, effect string) (bool, error) {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, eventID, effect)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[eventID]; ok {
		return false, nil
	}
	m.entries[eventID] = effect
	return true, nil
}

func (m *MockLedger) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if m.DeleteOlderThanFn != nil {
		return m.DeleteOlderThanFn(ctx, cutoff, limit)
	}
	return 0, nil
}

// Len reports the number of ledger entries for duplicate-delivery assertions.
func (m *MockLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Effect returns the recorded effect for an event id, or "".
func (m *MockLedger) Effect(eventID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[eventID]
}

// MockGateway
type MockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	CreateAuthorizationFn   func(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error)
	RetrieveAuthorizationFn func(ctx context.Context, id string) (*application.AuthorizationSnapshot, error)
	CancelAuthorizationFn   func(ctx context.Context, id string) error
	CreateCustomerFn        func(ctx context.Context, profile application.CustomerProfile) (string, error)
	VerifyEventFn           func(payload []byte, signature string) (*application.GatewayEvent, error)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{calls: make(map[string]int)}
}

func (m *MockGateway) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

func (m *MockGateway) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockGateway) CreateAuthorization(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
	m.inc("CreateAuthorization")
	if m.CreateAuthorizationFn != nil {
		return m.CreateAuthorizationFn(ctx, req)
	}
	return &application.AuthorizationRef{ID: "pi_mock_1", ClientSecret: "pi_mock_1_secret"}, nil
}

func (m *MockGateway) RetrieveAuthorization(ctx context.Context, id string) (*application.AuthorizationSnapshot, error) {
	m.inc("RetrieveAuthorization")
	if m.RetrieveAuthorizationFn != nil {
		return m.RetrieveAuthorizationFn(ctx, id)
	}
	return &application.AuthorizationSnapshot{
		ID:      id,
		Status:  "succeeded",
		Amount:  domain.Money{Cents: 1999, Currency: "usd"},
		Created: time.Now(),
	}, nil
}

func (m *MockGateway) CancelAuthorization(ctx context.Context, id string) error {
	m.inc("CancelAuthorization")
	if m.CancelAuthorizationFn != nil {
		return m.CancelAuthorizationFn(ctx, id)
	}
	return nil
}

func (m *MockGateway) CreateCustomer(ctx context.Context, profile application.CustomerProfile) (string, error) {
	m.inc("CreateCustomer")
	if m.CreateCustomerFn != nil {
		return m.CreateCustomerFn(ctx, profile)
	}
	return "cus_mock_1", nil
}

func (m *MockGateway) VerifyEvent(payload []byte, signature string) (*application.GatewayEvent, error) {
	m.inc("VerifyEvent")
	if m.VerifyEventFn != nil {
		return m.VerifyEventFn(payload, signature)
	}
	return &application.GatewayEvent{ID: "evt_mock_1", Verified: true}, nil
}
