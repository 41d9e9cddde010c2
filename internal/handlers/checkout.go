package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/papertide/storefront-api/internal/domain"
	"github.com/papertide/storefront-api/internal/platform/httpx"
	"github.com/papertide/storefront-api/internal/services"
)

const maxCheckoutRequestBody = 64 * 1024

// CheckoutURLs are the fallback redirect targets when the client omits its own.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

// CheckoutHandlers exposes the checkout session endpoint.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	urls     CheckoutURLs
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService, urls CheckoutURLs) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout, urls: urls}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/create-checkout-session", h.createSession)
}

type checkoutSessionRequest struct {
	Items      []domain.CartItem        `json:"items"`
	Shipping   domain.ShippingSelection `json:"shipping"`
	Customer   domain.Customer          `json:"customer"`
	SuccessURL string                   `json:"successUrl"`
	CancelURL  string                   `json:"cancelUrl"`
}

type checkoutSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

func (h *CheckoutHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req checkoutSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	successURL := strings.TrimSpace(req.SuccessURL)
	if successURL == "" {
		successURL = h.urls.Success
	}
	cancelURL := strings.TrimSpace(req.CancelURL)
	if cancelURL == "" {
		cancelURL = h.urls.Cancel
	}

	session, err := h.checkout.CreateCheckoutSession(ctx, services.CreateCheckoutSessionCommand{
		Items:      req.Items,
		Shipping:   req.Shipping,
		Customer:   req.Customer,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkoutSessionResponse{
		Success:   true,
		SessionID: session.SessionID,
		URL:       session.URL,
	})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart has no items", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutCartTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("cart_too_large", "cart has too many distinct items for checkout", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "cart contents are invalid", http.StatusBadRequest))
	default:
		// Processor failures stay opaque to the client.
		httpx.WriteError(ctx, w, httpx.NewError("checkout_failed", "unable to create checkout session", http.StatusBadGateway))
	}
}
