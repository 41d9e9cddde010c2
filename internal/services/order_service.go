package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/papertide/storefront-api/internal/domain"
	"github.com/papertide/storefront-api/internal/fulfillment"
	"github.com/papertide/storefront-api/internal/payments"
	"github.com/papertide/storefront-api/internal/platform/dedup"
	"github.com/papertide/storefront-api/internal/platform/observability"
)

// ErrWebhookInvalidSignature indicates the webhook payload failed signature verification.
var ErrWebhookInvalidSignature = errors.New("orders: invalid webhook signature")

type orderSubmitter interface {
	CreateOrder(ctx context.Context, order domain.FulfillmentOrder, confirm bool) (fulfillment.OrderConfirmation, error)
}

// OrderServiceDeps wires the dependencies required by the order service.
type OrderServiceDeps struct {
	Decoder       payments.WebhookDecoder
	Orders        orderSubmitter
	Dedup         dedup.Store
	DedupTTL      time.Duration
	ConfirmOrders bool
	Entropy       io.Reader
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	decoder  payments.WebhookDecoder
	orders   orderSubmitter
	dedup    dedup.Store
	dedupTTL time.Duration
	confirm  bool
	entropy  io.Reader
	now      func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewOrderService constructs an OrderService validating required dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Decoder == nil {
		return nil, errors.New("order service: webhook decoder is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("order service: fulfillment client is required")
	}
	if deps.Dedup == nil {
		return nil, errors.New("order service: dedup store is required")
	}

	ttl := deps.DedupTTL
	if ttl <= 0 {
		ttl = dedup.DefaultTTL
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = ulid.DefaultEntropy()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		decoder:  deps.Decoder,
		orders:   deps.Orders,
		dedup:    deps.Dedup,
		dedupTTL: ttl,
		confirm:  deps.ConfirmOrders,
		entropy:  entropy,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ProcessWebhook verifies the delivery, guards against replays, and submits a
// fulfillment order for completed checkout sessions. Processing failures after
// a verified signature are acknowledged rather than returned, so the processor
// does not retry deliveries that can never succeed; transient submission
// failures release the dedup reservation so a redelivery can retry.
func (s *orderService) ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) (WebhookResult, error) {
	checkout, completed, err := s.decoder.DecodeCompletedCheckout(payload, signatureHeader)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return WebhookResult{}, ErrWebhookInvalidSignature
		}
		s.logger(ctx, "webhook.decode_failed", map[string]any{"error": err.Error()})
		return WebhookResult{Skipped: true}, nil
	}
	if !completed {
		return WebhookResult{Skipped: true}, nil
	}

	// Session ids come straight from the delivery payload; sanitize before
	// they reach log fields.
	logID := observability.SanitizeSessionID(checkout.SessionID)

	now := s.now()
	reservation, err := s.dedup.Reserve(ctx, checkout.SessionID, now, s.dedupTTL)
	if err != nil {
		s.logger(ctx, "webhook.dedup_failed", map[string]any{
			"sessionId": logID,
			"error":     err.Error(),
		})
		return WebhookResult{Skipped: true}, nil
	}
	if reservation.State != dedup.ReservationStateNew {
		s.logger(ctx, "webhook.duplicate_delivery", map[string]any{
			"sessionId": logID,
			"orderRef":  reservation.Record.OrderRef,
		})
		return WebhookResult{Duplicate: true, OrderRef: reservation.Record.OrderRef}, nil
	}

	order, ok := s.buildOrder(ctx, checkout, logID)
	if !ok {
		// The session payload will never change on redelivery, so keep the
		// record to stop replays from re-alerting.
		if err := s.dedup.MarkProcessed(ctx, checkout.SessionID, "", now, s.dedupTTL); err != nil {
			s.logger(ctx, "webhook.dedup_failed", map[string]any{
				"sessionId": logID,
				"error":     err.Error(),
			})
		}
		return WebhookResult{}, nil
	}

	confirmation, err := s.orders.CreateOrder(ctx, order, s.confirm)
	if err != nil {
		s.logger(ctx, "webhook.fulfillment_failed", map[string]any{
			"alert":      true,
			"sessionId":  logID,
			"externalId": order.ExternalID,
			"error":      err.Error(),
		})
		if relErr := s.dedup.Release(ctx, checkout.SessionID); relErr != nil {
			s.logger(ctx, "webhook.dedup_release_failed", map[string]any{
				"sessionId": logID,
				"error":     relErr.Error(),
			})
		}
		return WebhookResult{}, nil
	}

	if err := s.dedup.MarkProcessed(ctx, checkout.SessionID, order.ExternalID, s.now(), s.dedupTTL); err != nil {
		s.logger(ctx, "webhook.dedup_failed", map[string]any{
			"sessionId": logID,
			"error":     err.Error(),
		})
	}

	s.logger(ctx, "webhook.order_submitted", map[string]any{
		"sessionId":  logID,
		"externalId": order.ExternalID,
		"orderId":    confirmation.ID,
		"status":     confirmation.Status,
	})

	return WebhookResult{Submitted: true, OrderRef: order.ExternalID}, nil
}

// buildOrder assembles the fulfillment order from the completed session. A
// false return means the session can never be fulfilled automatically and has
// been logged for manual follow-up.
func (s *orderService) buildOrder(ctx context.Context, checkout payments.CompletedCheckout, logID string) (domain.FulfillmentOrder, bool) {
	var items []metadataItem
	raw := checkout.Metadata[metadataItemsKey]
	if err := payments.DecodeMetadataValue(raw, &items); err != nil || len(items) == 0 {
		s.logger(ctx, "webhook.metadata_invalid", map[string]any{
			"alert":     true,
			"sessionId": logID,
		})
		return domain.FulfillmentOrder{}, false
	}

	if checkout.Address == nil || checkout.Address.Line1 == "" || checkout.Address.Country == "" {
		s.logger(ctx, "webhook.missing_address", map[string]any{
			"alert":     true,
			"sessionId": logID,
			"email":     checkout.CustomerEmail,
		})
		return domain.FulfillmentOrder{}, false
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		if item.VariantID <= 0 || item.Quantity <= 0 {
			s.logger(ctx, "webhook.metadata_invalid", map[string]any{
				"alert":     true,
				"sessionId": logID,
			})
			return domain.FulfillmentOrder{}, false
		}
		orderItems = append(orderItems, domain.OrderItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	name := checkout.ShippingName
	if name == "" {
		name = checkout.CustomerName
	}
	phone := checkout.ShippingPhone
	if phone == "" {
		phone = checkout.CustomerPhone
	}

	externalID := checkout.SessionID
	if id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy); err == nil {
		externalID = id.String()
	}

	subtotal := checkout.AmountTotal - checkout.AmountShipping - checkout.AmountTax
	if subtotal < 0 {
		subtotal = 0
	}

	return domain.FulfillmentOrder{
		ExternalID: externalID,
		Recipient: domain.Recipient{
			Name:     name,
			Address1: checkout.Address.Line1,
			Address2: checkout.Address.Line2,
			City:     checkout.Address.City,
			State:    checkout.Address.State,
			Country:  checkout.Address.Country,
			Zip:      checkout.Address.PostalCode,
			Phone:    phone,
			Email:    checkout.CustomerEmail,
		},
		Items: orderItems,
		Costs: domain.OrderCosts{
			Subtotal: domain.FormatMinorUnits(subtotal),
			Shipping: domain.FormatMinorUnits(checkout.AmountShipping),
			Tax:      domain.FormatMinorUnits(checkout.AmountTax),
			Total:    domain.FormatMinorUnits(checkout.AmountTotal),
		},
	}, true
}
