package handlers

import (
	"io"
	"net/http"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/interfaces/rest"
)

// Signatures are computed over the exact raw body, so it must be read before
// any decoding. 64KB covers every event the gateway sends.
const maxWebhookBodyBytes = int64(65536)

// HandleWebhook ingests one gateway event delivery. A 2xx acks the event; any
// other status makes the gateway redeliver.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		rest.WriteError(w, application.NewValidationError(err))
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	if err := h.reconciler.HandleEvent(r.Context(), payload, signature); err != nil {
		h.logger.Warn("webhook rejected", "error", err)
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, map[string]bool{"received": true}, http.StatusOK)
}
