package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/payments-core/internal/application/services"
	"github.com/shopsphere/payments-core/internal/interfaces/rest"
	"github.com/shopsphere/payments-core/internal/interfaces/rest/middleware"
)

type Handlers struct {
	intents    *services.PaymentIntentService
	reconciler *services.WebhookReconciler
	status     *services.StatusService

	// publishableKey goes to clients alongside the client secret so they can
	// initialize the gateway's browser SDK.
	publishableKey string
	jwtSecret      string
	logger         *slog.Logger
}

func NewHandlers(
	intents *services.PaymentIntentService,
	reconciler *services.WebhookReconciler,
	status *services.StatusService,
	publishableKey string,
	jwtSecret string,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		intents:        intents,
		reconciler:     reconciler,
		status:         status,
		publishableKey: publishableKey,
		jwtSecret:      jwtSecret,
		logger:         logger,
	}
}

func (h *Handlers) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhooks authenticate via signature, not bearer tokens.
		r.Post("/webhooks/payment", h.HandleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.jwtSecret))
			r.Post("/orders/{orderID}/payment", h.BeginPayment)
			r.Get("/orders/{orderID}/payment", h.GetPaymentStatus)
		})
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
