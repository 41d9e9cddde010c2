package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const completedEventType = "checkout.session.completed"

// ErrInvalidSignature is returned when a webhook payload fails signature verification.
var ErrInvalidSignature = errors.New("payments: invalid webhook signature")

// StripeWebhookDecoder verifies Stripe webhook signatures and extracts completed
// checkout sessions.
type StripeWebhookDecoder struct {
	secret string
}

// NewStripeWebhookDecoder constructs a decoder bound to the endpoint signing secret.
func NewStripeWebhookDecoder(secret string) (*StripeWebhookDecoder, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("payments: webhook signing secret is required")
	}
	return &StripeWebhookDecoder{secret: secret}, nil
}

// DecodeCompletedCheckout verifies the signature and, when the event is a
// checkout.session.completed, returns the extracted session. The boolean is
// false for valid events of any other type, which callers acknowledge without
// further processing.
func (d *StripeWebhookDecoder) DecodeCompletedCheckout(payload []byte, signatureHeader string) (CompletedCheckout, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, d.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return CompletedCheckout{}, false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if string(event.Type) != completedEventType {
		return CompletedCheckout{}, false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return CompletedCheckout{}, false, fmt.Errorf("payments: decode checkout session: %w", err)
	}

	checkout := CompletedCheckout{
		SessionID:   session.ID,
		AmountTotal: session.AmountTotal,
		Currency:    strings.ToUpper(string(session.Currency)),
		Metadata:    session.Metadata,
	}

	if details := session.TotalDetails; details != nil {
		checkout.AmountShipping = details.AmountShipping
		checkout.AmountTax = details.AmountTax
	}
	if customer := session.CustomerDetails; customer != nil {
		checkout.CustomerEmail = customer.Email
		checkout.CustomerName = customer.Name
		checkout.CustomerPhone = customer.Phone
	}
	if shipping := session.ShippingDetails; shipping != nil {
		checkout.ShippingName = shipping.Name
		checkout.ShippingPhone = shipping.Phone
		checkout.Address = addressFromStripe(shipping.Address)
	}
	if checkout.Address == nil && session.CustomerDetails != nil {
		checkout.Address = addressFromStripe(session.CustomerDetails.Address)
	}

	return checkout, true, nil
}

func addressFromStripe(addr *stripe.Address) *Address {
	if addr == nil {
		return nil
	}
	return &Address{
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
