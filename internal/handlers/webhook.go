package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/papertide/storefront-api/internal/platform/httpx"
	"github.com/papertide/storefront-api/internal/services"
)

const maxWebhookBody = 1 << 20

// WebhookHandlers receives signed payment processor deliveries.
type WebhookHandlers struct {
	orders services.OrderService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(orders services.OrderService) *WebhookHandlers {
	return &WebhookHandlers{orders: orders}
}

// Routes registers the webhook endpoint under the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/webhook", h.receive)
}

// receive reads the raw body for signature verification and always returns 200
// for verified deliveries, matching the processor's retry contract. Signature
// failures answer with plain text so the processor's dashboard shows the reason.
func (h *WebhookHandlers) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		http.Error(w, "webhook processing unavailable", http.StatusServiceUnavailable)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	result, err := h.orders.ProcessWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, services.ErrWebhookInvalidSignature) {
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		return
	}

	payloadOut := map[string]any{"received": true}
	if result.Duplicate {
		payloadOut["duplicate"] = true
	}
	httpx.WriteJSON(w, http.StatusOK, payloadOut)
}
