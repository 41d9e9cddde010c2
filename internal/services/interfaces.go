package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/papertide/storefront-api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	CartItem          = domain.CartItem
	Customer          = domain.Customer
	ShippingSelection = domain.ShippingSelection
	Recipient         = domain.Recipient
	FulfillmentOrder  = domain.FulfillmentOrder
)

// CreateCheckoutSessionCommand carries a snapshot of the client cart plus the
// redirect targets for the hosted payment page.
type CreateCheckoutSessionCommand struct {
	Items      []CartItem
	Shipping   ShippingSelection
	Customer   Customer
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the created hosted session returned to the client.
type CheckoutSession struct {
	SessionID string
	URL       string
	ExpiresAt time.Time
}

// CheckoutService turns a client cart into a hosted payment session.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSession, error)
}

// WebhookResult reports what a webhook delivery amounted to. Exactly one of
// Submitted, Duplicate, or Skipped is set for a successfully handled delivery.
type WebhookResult struct {
	Submitted bool
	Duplicate bool
	Skipped   bool
	OrderRef  string
}

// OrderService processes signed payment webhooks and drives fulfillment submission.
type OrderService interface {
	ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) (WebhookResult, error)
}

// ProductVariant is a sellable variant exposed through the catalog API.
type ProductVariant struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Currency string
	ImageURL string
	InStock  bool
}

// Product is a catalog listing entry.
type Product struct {
	ID           int64
	Name         string
	ThumbnailURL string
}

// ProductDetail is a catalog product with its purchasable variants.
type ProductDetail struct {
	Product
	Variants []ProductVariant
}

// CatalogService exposes the fulfillment provider's store catalog to the storefront.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (ProductDetail, error)
}

// ShippingAddress is the quote destination supplied by the client.
type ShippingAddress struct {
	Address1 string
	City     string
	State    string
	Country  string
	Zip      string
}

// ShippingQuoteCommand asks for shipping options for a cart and destination.
type ShippingQuoteCommand struct {
	Address ShippingAddress
	Items   []CartItem
}

// ShippingOption is a quoted shipping method.
type ShippingOption struct {
	ID              string
	Name            string
	Rate            decimal.Decimal
	Currency        string
	MinDeliveryDays int
	MaxDeliveryDays int
}

// ShippingService quotes live shipping rates from the fulfillment provider.
type ShippingService interface {
	QuoteRates(ctx context.Context, cmd ShippingQuoteCommand) ([]ShippingOption, error)
}
