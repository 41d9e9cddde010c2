package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/papertide/storefront-api/internal/domain"
	"github.com/papertide/storefront-api/internal/payments"
)

const (
	metadataItemsKey    = "items"
	metadataShippingKey = "shipping"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutEmptyCart indicates the cart has no purchasable items.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutCartTooLarge indicates the cart cannot fit in the session metadata side channel.
	ErrCheckoutCartTooLarge = errors.New("checkout: cart exceeds metadata capacity")
	// ErrCheckoutPaymentFailed indicates the payment processor session could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// metadataItem is the compact per-item record packed into session metadata and
// recovered by the webhook to build the fulfillment order.
type metadataItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// metadataShipping records the shipping method the customer selected.
type metadataShipping struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rate string `json:"rate"`
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Payments           payments.Provider
	Currency           string
	AllowedCountries   []string
	MetadataValueLimit int
	Clock              func() time.Time
	Logger             func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	payments         payments.Provider
	currency         string
	allowedCountries []string
	metadataLimit    int
	now              func() time.Time
	logger           func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "usd"
	}
	limit := deps.MetadataValueLimit
	if limit <= 0 {
		limit = payments.DefaultMetadataValueLimit
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		payments:         deps.Payments,
		currency:         currency,
		allowedCountries: deps.AllowedCountries,
		metadataLimit:    limit,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateCheckoutSession converts the cart to minor units, packs the fulfillment
// metadata, and creates the hosted payment session.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSession, error) {
	if len(cmd.Items) == 0 {
		return CheckoutSession{}, ErrCheckoutEmptyCart
	}

	successURL := strings.TrimSpace(cmd.SuccessURL)
	cancelURL := strings.TrimSpace(cmd.CancelURL)
	if successURL == "" || cancelURL == "" {
		return CheckoutSession{}, ErrCheckoutInvalidInput
	}

	lineItems := make([]payments.CheckoutLineItem, 0, len(cmd.Items)+1)
	metaItems := make([]metadataItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.Quantity <= 0 || strings.TrimSpace(item.Name) == "" {
			return CheckoutSession{}, ErrCheckoutInvalidInput
		}
		variantID, err := strconv.ParseInt(strings.TrimSpace(item.VariantID), 10, 64)
		if err != nil || variantID <= 0 {
			return CheckoutSession{}, ErrCheckoutInvalidInput
		}
		unitAmount := domain.MinorUnits(item.UnitPrice)
		if unitAmount <= 0 {
			return CheckoutSession{}, ErrCheckoutInvalidInput
		}

		lineItems = append(lineItems, payments.CheckoutLineItem{
			Name:       item.Name,
			ImageURL:   item.ImageURL,
			UnitAmount: unitAmount,
			Quantity:   int64(item.Quantity),
		})
		metaItems = append(metaItems, metadataItem{VariantID: variantID, Quantity: item.Quantity})
	}

	// Shipping rides along as a synthetic single-quantity line so the hosted
	// page charges one total and the receipt itemises delivery.
	if cmd.Shipping.ID != "" {
		rate := domain.MinorUnits(cmd.Shipping.Rate)
		if rate < 0 {
			return CheckoutSession{}, ErrCheckoutInvalidInput
		}
		name := cmd.Shipping.Name
		if name == "" {
			name = "Shipping"
		} else {
			name = "Shipping (" + name + ")"
		}
		lineItems = append(lineItems, payments.CheckoutLineItem{
			Name:       name,
			UnitAmount: rate,
			Quantity:   1,
		})
	}

	metadata, err := s.packMetadata(metaItems, cmd.Shipping)
	if err != nil {
		return CheckoutSession{}, err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutSessionRequest{
		Items:                  lineItems,
		Currency:               s.currency,
		CustomerEmail:          strings.TrimSpace(cmd.Customer.Email),
		SuccessURL:             successURL,
		CancelURL:              cancelURL,
		Metadata:               metadata,
		CollectShippingAddress: true,
		AllowedCountries:       s.allowedCountries,
		CollectPhone:           true,
	})
	if err != nil {
		s.logger(ctx, "checkout.session.create_failed", map[string]any{
			"error":     err.Error(),
			"itemCount": len(cmd.Items),
		})
		return CheckoutSession{}, ErrCheckoutPaymentFailed
	}

	s.logger(ctx, "checkout.session.created", map[string]any{
		"sessionId": session.ID,
		"itemCount": len(cmd.Items),
	})

	return CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		ExpiresAt: session.ExpiresAt.UTC(),
	}, nil
}

func (s *checkoutService) packMetadata(items []metadataItem, shipping ShippingSelection) (map[string]string, error) {
	encodedItems, err := payments.EncodeMetadataValue(items, s.metadataLimit)
	if err != nil {
		if errors.Is(err, payments.ErrMetadataValueTooLarge) {
			return nil, ErrCheckoutCartTooLarge
		}
		return nil, ErrCheckoutInvalidInput
	}

	metadata := map[string]string{metadataItemsKey: encodedItems}

	if shipping.ID != "" {
		encodedShipping, err := payments.EncodeMetadataValue(metadataShipping{
			ID:   shipping.ID,
			Name: shipping.Name,
			Rate: shipping.Rate.StringFixed(2),
		}, s.metadataLimit)
		if err != nil {
			if errors.Is(err, payments.ErrMetadataValueTooLarge) {
				return nil, ErrCheckoutCartTooLarge
			}
			return nil, ErrCheckoutInvalidInput
		}
		metadata[metadataShippingKey] = encodedShipping
	}

	return metadata, nil
}
