package gateway_test

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v83/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/config"
	"github.com/shopsphere/payments-core/internal/domain"
	"github.com/shopsphere/payments-core/internal/infrastructure/gateway"
)

const testSigningSecret = "whsec_test_secret"

func newTestStripeGateway(webhookSecret string) application.GatewayClient {
	return gateway.NewStripeGateway(config.GatewayConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookSecret,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// sign produces a Stripe-Signature header value for the payload.
func sign(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

// Payloads carry an api_version from the sending account's pin, which will
// not match the version this SDK release expects. Verification must tolerate
// that: only the signature authenticates a delivery.
func paymentIntentEventJSON(eventType, eventID, intentID, orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2024-06-20",
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "payment_intent",
				"metadata": {"order_id": %q}
			}
		}
	}`, eventID, eventType, intentID, orderID))
}

func TestVerifyEvent_SignedPaymentIntentSucceeded(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := paymentIntentEventJSON("payment_intent.succeeded", "evt_1", "pi_1", "11111111-2222-3333-4444-555555555555")

	event, err := g.VerifyEvent(payload, sign(payload, testSigningSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, domain.EventAuthorizationSucceeded, event.Category)
	assert.Equal(t, "pi_1", event.AuthorizationID)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", event.OrderID)
	assert.True(t, event.Verified)
}

func TestVerifyEvent_ToleratesForeignAPIVersion(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := []byte(`{
		"id": "evt_pinned",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_pinned",
				"object": "payment_intent",
				"metadata": {}
			}
		}
	}`)

	event, err := g.VerifyEvent(payload, sign(payload, testSigningSecret))
	require.NoError(t, err)

	assert.True(t, event.Verified)
	assert.Equal(t, "pi_pinned", event.AuthorizationID)
}

func TestVerifyEvent_EventTypeMapping(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)

	tests := []struct {
		eventType string
		want      domain.EventCategory
	}{
		{"payment_intent.created", domain.EventAuthorizationCreated},
		{"payment_intent.succeeded", domain.EventAuthorizationSucceeded},
		{"payment_intent.payment_failed", domain.EventAuthorizationFailed},
		{"payment_intent.canceled", domain.EventAuthorizationCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			payload := paymentIntentEventJSON(tt.eventType, "evt_1", "pi_1", "")
			event, err := g.VerifyEvent(payload, sign(payload, testSigningSecret))
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Category)
		})
	}
}

func TestVerifyEvent_ChargeRefunded(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := []byte(`{
		"id": "evt_refund",
		"object": "event",
		"api_version": "2024-06-20",
		"type": "charge.refunded",
		"data": {
			"object": {
				"id": "ch_1",
				"object": "charge",
				"payment_intent": "pi_1",
				"metadata": {}
			}
		}
	}`)

	event, err := g.VerifyEvent(payload, sign(payload, testSigningSecret))
	require.NoError(t, err)

	assert.Equal(t, domain.EventChargeRefunded, event.Category)
	assert.Equal(t, "pi_1", event.AuthorizationID)
}

func TestVerifyEvent_UnhandledTypeHasNoCategory(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := []byte(`{"id": "evt_x", "object": "event", "api_version": "2024-06-20", "type": "customer.updated", "data": {"object": {}}}`)

	event, err := g.VerifyEvent(payload, sign(payload, testSigningSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_x", event.ID)
	assert.Empty(t, event.Category)
}

func TestVerifyEvent_RejectsBadSignature(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := paymentIntentEventJSON("payment_intent.succeeded", "evt_1", "pi_1", "")

	_, err := g.VerifyEvent(payload, sign(payload, "whsec_wrong_secret"))
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeSignatureInvalid, application.ToErrorCode(err))
}

func TestVerifyEvent_RejectsMissingSignature(t *testing.T) {
	g := newTestStripeGateway(testSigningSecret)
	payload := paymentIntentEventJSON("payment_intent.succeeded", "evt_1", "pi_1", "")

	_, err := g.VerifyEvent(payload, "")
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeSignatureInvalid, application.ToErrorCode(err))
}

// Without a signing secret the adapter runs fail-open: events parse without
// authentication and are flagged unverified.
func TestVerifyEvent_NoSecretAcceptsUnverified(t *testing.T) {
	g := newTestStripeGateway("")
	payload := paymentIntentEventJSON("payment_intent.succeeded", "evt_1", "pi_1", "")

	event, err := g.VerifyEvent(payload, "")
	require.NoError(t, err)

	assert.False(t, event.Verified)
	assert.Equal(t, domain.EventAuthorizationSucceeded, event.Category)
}

// The adapter reports the parse failure; the reconciler acks it upstream so
// the gateway does not redeliver bytes that can never parse.
func TestVerifyEvent_NoSecretRejectsMalformedPayload(t *testing.T) {
	g := newTestStripeGateway("")

	_, err := g.VerifyEvent([]byte("not json"), "")
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeValidation, application.ToErrorCode(err))
}
