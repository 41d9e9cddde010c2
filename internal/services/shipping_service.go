package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/papertide/storefront-api/internal/fulfillment"
)

var (
	// ErrShippingInvalidInput indicates the caller supplied invalid input parameters.
	ErrShippingInvalidInput = errors.New("shipping: invalid input")
	// ErrShippingUnavailable indicates the fulfillment provider could not quote rates.
	ErrShippingUnavailable = errors.New("shipping: unavailable")
)

type shippingQuoter interface {
	ShippingRates(ctx context.Context, req fulfillment.ShippingRateRequest) ([]fulfillment.ShippingRate, error)
}

// ShippingServiceDeps wires the dependencies required by the shipping service.
type ShippingServiceDeps struct {
	Provider shippingQuoter
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type shippingService struct {
	provider shippingQuoter
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewShippingService constructs a ShippingService validating required dependencies.
func NewShippingService(deps ShippingServiceDeps) (ShippingService, error) {
	if deps.Provider == nil {
		return nil, errors.New("shipping service: fulfillment client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &shippingService{provider: deps.Provider, logger: logger}, nil
}

// QuoteRates asks the fulfillment provider for live shipping options.
func (s *shippingService) QuoteRates(ctx context.Context, cmd ShippingQuoteCommand) ([]ShippingOption, error) {
	if strings.TrimSpace(cmd.Address.Country) == "" {
		return nil, ErrShippingInvalidInput
	}
	if len(cmd.Items) == 0 {
		return nil, ErrShippingInvalidInput
	}

	items := make([]fulfillment.ShippingRateItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		variantID, err := strconv.ParseInt(strings.TrimSpace(item.VariantID), 10, 64)
		if err != nil || variantID <= 0 || item.Quantity <= 0 {
			return nil, ErrShippingInvalidInput
		}
		items = append(items, fulfillment.ShippingRateItem{
			VariantID: variantID,
			Quantity:  item.Quantity,
		})
	}

	rates, err := s.provider.ShippingRates(ctx, fulfillment.ShippingRateRequest{
		Recipient: fulfillment.ShippingRateRecipient{
			Address1:    cmd.Address.Address1,
			City:        cmd.Address.City,
			StateCode:   cmd.Address.State,
			CountryCode: strings.ToUpper(strings.TrimSpace(cmd.Address.Country)),
			Zip:         cmd.Address.Zip,
		},
		Items: items,
	})
	if err != nil {
		if errors.Is(err, fulfillment.ErrRejected) {
			return nil, ErrShippingInvalidInput
		}
		s.logger(ctx, "shipping.provider_error", map[string]any{"error": err.Error()})
		return nil, ErrShippingUnavailable
	}

	options := make([]ShippingOption, 0, len(rates))
	for _, rate := range rates {
		amount, err := decimal.NewFromString(rate.Rate)
		if err != nil {
			s.logger(ctx, "shipping.rate_invalid", map[string]any{
				"rateId": rate.ID,
				"rate":   rate.Rate,
			})
			continue
		}
		options = append(options, ShippingOption{
			ID:              rate.ID,
			Name:            rate.Name,
			Rate:            amount,
			Currency:        rate.Currency,
			MinDeliveryDays: rate.MinDeliveryDays,
			MaxDeliveryDays: rate.MaxDeliveryDays,
		})
	}
	return options, nil
}
