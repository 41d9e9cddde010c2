package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/papertide/storefront-api/internal/fulfillment"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid input parameters.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the requested product does not exist.
	ErrCatalogNotFound = errors.New("catalog: product not found")
	// ErrCatalogUnavailable indicates the fulfillment provider could not be reached.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)

type catalogProvider interface {
	ListProducts(ctx context.Context) ([]fulfillment.SyncProduct, error)
	GetProduct(ctx context.Context, id string) (fulfillment.ProductDetail, error)
}

// CatalogServiceDeps wires the dependencies required by the catalog service.
type CatalogServiceDeps struct {
	Provider catalogProvider
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	provider catalogProvider
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewCatalogService constructs a CatalogService validating required dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Provider == nil {
		return nil, errors.New("catalog service: fulfillment client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{provider: deps.Provider, logger: logger}, nil
}

// ListProducts returns the synced store catalog in storefront shape.
func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	synced, err := s.provider.ListProducts(ctx)
	if err != nil {
		return nil, s.translateError(ctx, err)
	}

	products := make([]Product, 0, len(synced))
	for _, p := range synced {
		// Partially synced products would produce unfulfillable orders.
		if p.Synced < p.Variants {
			continue
		}
		products = append(products, Product{
			ID:           p.ID,
			Name:         p.Name,
			ThumbnailURL: p.ThumbnailURL,
		})
	}
	return products, nil
}

// GetProduct returns a single product with its purchasable variants.
func (s *catalogService) GetProduct(ctx context.Context, id string) (ProductDetail, error) {
	if strings.TrimSpace(id) == "" {
		return ProductDetail{}, ErrCatalogInvalidInput
	}

	detail, err := s.provider.GetProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, s.translateError(ctx, err)
	}

	variants := make([]ProductVariant, 0, len(detail.Variants))
	for _, v := range detail.Variants {
		price, err := decimal.NewFromString(v.RetailPrice)
		if err != nil {
			s.logger(ctx, "catalog.variant_price_invalid", map[string]any{
				"variantId": v.ID,
				"price":     v.RetailPrice,
			})
			continue
		}
		variants = append(variants, ProductVariant{
			ID:       v.ID,
			Name:     v.Name,
			Price:    price,
			Currency: v.Currency,
			ImageURL: variantImage(v),
			InStock:  strings.EqualFold(v.Availability, "active"),
		})
	}

	return ProductDetail{
		Product: Product{
			ID:           detail.Product.ID,
			Name:         detail.Product.Name,
			ThumbnailURL: detail.Product.ThumbnailURL,
		},
		Variants: variants,
	}, nil
}

func (s *catalogService) translateError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, fulfillment.ErrNotFound):
		return ErrCatalogNotFound
	case errors.Is(err, fulfillment.ErrRejected):
		return ErrCatalogInvalidInput
	default:
		s.logger(ctx, "catalog.provider_error", map[string]any{"error": err.Error()})
		return ErrCatalogUnavailable
	}
}

func variantImage(v fulfillment.SyncVariant) string {
	for _, file := range v.Files {
		if file.Type == "preview" && file.PreviewURL != "" {
			return file.PreviewURL
		}
	}
	return v.Product.Image
}
