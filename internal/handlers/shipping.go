package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/papertide/storefront-api/internal/domain"
	"github.com/papertide/storefront-api/internal/platform/httpx"
	"github.com/papertide/storefront-api/internal/services"
)

const maxShippingRequestBody = 32 * 1024

// ShippingHandlers exposes the shipping rate quote endpoint.
type ShippingHandlers struct {
	shipping services.ShippingService
}

// NewShippingHandlers constructs shipping handlers.
func NewShippingHandlers(shipping services.ShippingService) *ShippingHandlers {
	return &ShippingHandlers{shipping: shipping}
}

// Routes registers shipping endpoints under the provided router.
func (h *ShippingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/shipping-rates", h.quoteRates)
}

type shippingRatesRequest struct {
	Recipient struct {
		Address1 string `json:"address1"`
		City     string `json:"city"`
		State    string `json:"state"`
		Country  string `json:"country"`
		Zip      string `json:"zip"`
	} `json:"recipient"`
	Items []domain.CartItem `json:"items"`
}

type shippingRatesResponse struct {
	Success bool                   `json:"success"`
	Rates   []shippingRateResponse `json:"rates"`
}

type shippingRateResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Rate            decimal.Decimal `json:"rate"`
	Currency        string          `json:"currency"`
	MinDeliveryDays int             `json:"minDeliveryDays"`
	MaxDeliveryDays int             `json:"maxDeliveryDays"`
}

func (h *ShippingHandlers) quoteRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shipping == nil {
		httpx.WriteError(ctx, w, httpx.NewError("shipping_unavailable", "shipping service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxShippingRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req shippingRatesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	options, err := h.shipping.QuoteRates(ctx, services.ShippingQuoteCommand{
		Address: services.ShippingAddress{
			Address1: req.Recipient.Address1,
			City:     req.Recipient.City,
			State:    req.Recipient.State,
			Country:  req.Recipient.Country,
			Zip:      req.Recipient.Zip,
		},
		Items: req.Items,
	})
	if err != nil {
		h.writeShippingError(ctx, w, err)
		return
	}

	rates := make([]shippingRateResponse, 0, len(options))
	for _, option := range options {
		rates = append(rates, shippingRateResponse{
			ID:              option.ID,
			Name:            option.Name,
			Rate:            option.Rate,
			Currency:        option.Currency,
			MinDeliveryDays: option.MinDeliveryDays,
			MaxDeliveryDays: option.MaxDeliveryDays,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, shippingRatesResponse{Success: true, Rates: rates})
}

func (h *ShippingHandlers) writeShippingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrShippingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address or items are invalid", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("shipping_unavailable", "unable to quote shipping rates", http.StatusBadGateway))
	}
}
