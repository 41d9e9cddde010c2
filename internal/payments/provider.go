package payments

import (
	"context"
	"time"
)

// Logger defines the logging contract for payment provider operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// CheckoutLineItem describes a single line item to include in a checkout session.
// Amounts are expressed in the currency's minor units.
type CheckoutLineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
	Currency   string
}

// CheckoutSessionRequest captures the payload required to create a hosted checkout session.
type CheckoutSessionRequest struct {
	Items                  []CheckoutLineItem
	Currency               string
	CustomerEmail          string
	SuccessURL             string
	CancelURL              string
	Metadata               map[string]string
	IdempotencyKey         string
	CollectShippingAddress bool
	AllowedCountries       []string
	CollectPhone           bool
}

// CheckoutSession represents the hosted session returned to the client for redirect.
type CheckoutSession struct {
	ID          string
	URL         string
	AmountTotal int64
	Currency    string
	ExpiresAt   time.Time
}

// Address is a normalised postal address extracted from a completed session.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CompletedCheckout carries the fields of a finished checkout session that
// fulfillment needs: who paid, where to ship, and the metadata side channel.
type CompletedCheckout struct {
	SessionID      string
	AmountTotal    int64
	AmountShipping int64
	AmountTax      int64
	Currency       string
	CustomerEmail  string
	CustomerName   string
	CustomerPhone  string
	ShippingName   string
	ShippingPhone  string
	Address        *Address
	Metadata       map[string]string
}

// Provider defines the contract for payment processor adapters.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
}

// WebhookDecoder verifies and decodes signed webhook deliveries from the processor.
type WebhookDecoder interface {
	DecodeCompletedCheckout(payload []byte, signatureHeader string) (CompletedCheckout, bool, error)
}
