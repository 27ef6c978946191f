package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/config"
)

// RetryGateway decorates a GatewayClient with exponential-backoff retries.
// Creation calls carry an idempotency key, so replaying them at the gateway
// cannot mint duplicates.
type RetryGateway struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGateway(inner application.GatewayClient, cfg config.RetryConfig) application.GatewayClient {
	return &RetryGateway{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: int(cfg.MaxRetries),
	}
}

func (r *RetryGateway) CreateAuthorization(ctx context.Context, req application.AuthorizationRequest) (*application.AuthorizationRef, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.AuthorizationRef, error) {
			return r.inner.CreateAuthorization(ctx, req)
		},
	)
}

func (r *RetryGateway) RetrieveAuthorization(ctx context.Context, id string) (*application.AuthorizationSnapshot, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.AuthorizationSnapshot, error) {
			return r.inner.RetrieveAuthorization(ctx, id)
		},
	)
}

func (r *RetryGateway) CancelAuthorization(ctx context.Context, id string) error {
	_, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*struct{}, error) {
			return &struct{}{}, r.inner.CancelAuthorization(ctx, id)
		},
	)
	return err
}

func (r *RetryGateway) CreateCustomer(ctx context.Context, profile application.CustomerProfile) (string, error) {
	id, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*string, error) {
			customerID, err := r.inner.CreateCustomer(ctx, profile)
			if err != nil {
				return nil, err
			}
			return &customerID, nil
		},
	)
	if err != nil {
		return "", err
	}
	return *id, nil
}

// VerifyEvent is local computation, nothing to retry.
func (r *RetryGateway) VerifyEvent(payload []byte, signature string) (*application.GatewayEvent, error) {
	return r.inner.VerifyEvent(payload, signature)
}

func retry[T any](r *RetryGateway, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable treats gateway 5xx and rate limiting as transient. Anything the
// gateway rejected outright (bad request, card errors) will not pass on
// replay.
func isRetryable(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return true
		}
		if stripeErr.HTTPStatusCode == 429 {
			return true
		}
		return false
	}

	if svcErr, ok := application.IsServiceError(err); ok && svcErr.Code == application.ErrCodeSignatureInvalid {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Network-level failures without a gateway response.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGateway) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
