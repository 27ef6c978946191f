package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopsphere/payments-core/internal/interfaces/rest"
)

// Timeout bounds the request context and the response write. The timeout body
// speaks the same error envelope as the rest of the API.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(rest.ErrorResponse{
		Error: rest.ErrorDetail{
			Code:    "TIMEOUT",
			Message: "request timed out",
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			http.TimeoutHandler(next, timeout, string(body)).ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
