package domain

import "github.com/google/uuid"

// User is the collaborator record the orchestrator reads for customer
// resolution. GatewayCustomerID is a write-once-then-reuse cache; the gateway
// stays authoritative for the customer object itself.
type User struct {
	ID                uuid.UUID
	Email             string
	Name              string
	GatewayCustomerID string
}
