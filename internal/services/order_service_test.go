package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/papertide/storefront-api/internal/domain"
	"github.com/papertide/storefront-api/internal/fulfillment"
	"github.com/papertide/storefront-api/internal/payments"
	"github.com/papertide/storefront-api/internal/platform/dedup"
)

type stubWebhookDecoder struct {
	decodeFn func(payload []byte, signatureHeader string) (payments.CompletedCheckout, bool, error)
}

func (s *stubWebhookDecoder) DecodeCompletedCheckout(payload []byte, signatureHeader string) (payments.CompletedCheckout, bool, error) {
	return s.decodeFn(payload, signatureHeader)
}

type stubOrderSubmitter struct {
	createFn func(ctx context.Context, order domain.FulfillmentOrder, confirm bool) (fulfillment.OrderConfirmation, error)
}

func (s *stubOrderSubmitter) CreateOrder(ctx context.Context, order domain.FulfillmentOrder, confirm bool) (fulfillment.OrderConfirmation, error) {
	return s.createFn(ctx, order, confirm)
}

func completedCheckoutFixture() payments.CompletedCheckout {
	return payments.CompletedCheckout{
		SessionID:      "cs_test_123",
		AmountTotal:    10850,
		AmountShipping: 850,
		Currency:       "USD",
		CustomerEmail:  "buyer@example.com",
		CustomerName:   "Pat Buyer",
		ShippingName:   "Pat Buyer",
		Address: &payments.Address{
			Line1:      "1 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Country:    "US",
		},
		Metadata: map[string]string{
			metadataItemsKey:    `[{"variant_id":4011,"quantity":2}]`,
			metadataShippingKey: `{"id":"STANDARD","name":"Standard","rate":"8.50"}`,
		},
	}
}

func decoderReturning(checkout payments.CompletedCheckout) *stubWebhookDecoder {
	return &stubWebhookDecoder{
		decodeFn: func([]byte, string) (payments.CompletedCheckout, bool, error) {
			return checkout, true, nil
		},
	}
}

func newOrderServiceForTest(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Dedup == nil {
		deps.Dedup = dedup.NewMemoryStore()
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		}
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func TestProcessWebhookSubmitsOrder(t *testing.T) {
	var submitted domain.FulfillmentOrder
	var confirmFlag bool
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder:       decoderReturning(completedCheckoutFixture()),
		ConfirmOrders: true,
		Orders: &stubOrderSubmitter{
			createFn: func(_ context.Context, order domain.FulfillmentOrder, confirm bool) (fulfillment.OrderConfirmation, error) {
				submitted = order
				confirmFlag = confirm
				return fulfillment.OrderConfirmation{ID: 90210, ExternalID: order.ExternalID, Status: "pending"}, nil
			},
		},
	})

	result, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("ProcessWebhook returned error: %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected submission, got %+v", result)
	}
	if result.OrderRef == "" || result.OrderRef != submitted.ExternalID {
		t.Errorf("expected order ref %q to match submitted order, got %q", submitted.ExternalID, result.OrderRef)
	}
	if !confirmFlag {
		t.Error("expected order to be confirmed")
	}

	if submitted.Recipient.Name != "Pat Buyer" || submitted.Recipient.City != "Springfield" || submitted.Recipient.Zip != "62701" {
		t.Errorf("unexpected recipient: %+v", submitted.Recipient)
	}
	if len(submitted.Items) != 1 || submitted.Items[0].VariantID != 4011 || submitted.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", submitted.Items)
	}
	wantCosts := domain.OrderCosts{Subtotal: "100.00", Shipping: "8.50", Tax: "0.00", Total: "108.50"}
	if submitted.Costs != wantCosts {
		t.Errorf("unexpected costs: %+v", submitted.Costs)
	}
}

func TestProcessWebhookInvalidSignature(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: &stubWebhookDecoder{
			decodeFn: func([]byte, string) (payments.CompletedCheckout, bool, error) {
				return payments.CompletedCheckout{}, false, payments.ErrInvalidSignature
			},
		},
		Orders: &stubOrderSubmitter{
			createFn: func(context.Context, domain.FulfillmentOrder, bool) (fulfillment.OrderConfirmation, error) {
				t.Fatal("order should not be submitted for an unverified payload")
				return fulfillment.OrderConfirmation{}, nil
			},
		},
	})

	_, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "bad-sig")
	if !errors.Is(err, ErrWebhookInvalidSignature) {
		t.Fatalf("expected ErrWebhookInvalidSignature, got %v", err)
	}
}

func TestProcessWebhookSkipsOtherEvents(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: &stubWebhookDecoder{
			decodeFn: func([]byte, string) (payments.CompletedCheckout, bool, error) {
				return payments.CompletedCheckout{}, false, nil
			},
		},
		Orders: &stubOrderSubmitter{
			createFn: func(context.Context, domain.FulfillmentOrder, bool) (fulfillment.OrderConfirmation, error) {
				t.Fatal("order should not be submitted for unrelated events")
				return fulfillment.OrderConfirmation{}, nil
			},
		},
	})

	result, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("ProcessWebhook returned error: %v", err)
	}
	if !result.Skipped {
		t.Fatalf("expected skipped result, got %+v", result)
	}
}

func TestProcessWebhookDuplicateDelivery(t *testing.T) {
	submissions := 0
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: decoderReturning(completedCheckoutFixture()),
		Orders: &stubOrderSubmitter{
			createFn: func(_ context.Context, order domain.FulfillmentOrder, _ bool) (fulfillment.OrderConfirmation, error) {
				submissions++
				return fulfillment.OrderConfirmation{ID: 90210, ExternalID: order.ExternalID}, nil
			},
		},
	})

	first, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("first ProcessWebhook returned error: %v", err)
	}
	second, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("second ProcessWebhook returned error: %v", err)
	}

	if submissions != 1 {
		t.Errorf("expected exactly one submission, got %d", submissions)
	}
	if !second.Duplicate {
		t.Errorf("expected duplicate result, got %+v", second)
	}
	if second.OrderRef != first.OrderRef {
		t.Errorf("expected duplicate to report original order ref %q, got %q", first.OrderRef, second.OrderRef)
	}
}

func TestProcessWebhookFulfillmentFailureAllowsRetry(t *testing.T) {
	attempts := 0
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: decoderReturning(completedCheckoutFixture()),
		Orders: &stubOrderSubmitter{
			createFn: func(_ context.Context, order domain.FulfillmentOrder, _ bool) (fulfillment.OrderConfirmation, error) {
				attempts++
				if attempts == 1 {
					return fulfillment.OrderConfirmation{}, fulfillment.ErrUnavailable
				}
				return fulfillment.OrderConfirmation{ID: 90210, ExternalID: order.ExternalID}, nil
			},
		},
	})

	first, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("first ProcessWebhook returned error: %v", err)
	}
	if first.Submitted || first.Duplicate || first.Skipped {
		t.Errorf("expected acknowledged failure, got %+v", first)
	}

	second, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("second ProcessWebhook returned error: %v", err)
	}
	if !second.Submitted {
		t.Fatalf("expected redelivery to retry submission, got %+v", second)
	}
	if attempts != 2 {
		t.Errorf("expected 2 submission attempts, got %d", attempts)
	}
}

func TestProcessWebhookMissingAddressDoesNotReplay(t *testing.T) {
	checkout := completedCheckoutFixture()
	checkout.Address = nil

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: decoderReturning(checkout),
		Orders: &stubOrderSubmitter{
			createFn: func(context.Context, domain.FulfillmentOrder, bool) (fulfillment.OrderConfirmation, error) {
				t.Fatal("order should not be submitted without an address")
				return fulfillment.OrderConfirmation{}, nil
			},
		},
	})

	first, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("first ProcessWebhook returned error: %v", err)
	}
	if first.Submitted || first.Duplicate {
		t.Errorf("expected acknowledged failure, got %+v", first)
	}

	second, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("second ProcessWebhook returned error: %v", err)
	}
	if !second.Duplicate {
		t.Errorf("expected replay to be deduplicated, got %+v", second)
	}
}

func TestProcessWebhookSanitizesSessionIDInLogs(t *testing.T) {
	checkout := completedCheckoutFixture()
	checkout.SessionID = "cs_test_\x00\x1b123"

	var logged []string
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: decoderReturning(checkout),
		Orders: &stubOrderSubmitter{
			createFn: func(_ context.Context, order domain.FulfillmentOrder, _ bool) (fulfillment.OrderConfirmation, error) {
				return fulfillment.OrderConfirmation{ID: 90210, ExternalID: order.ExternalID}, nil
			},
		},
		Logger: func(_ context.Context, _ string, fields map[string]any) {
			if id, ok := fields["sessionId"].(string); ok {
				logged = append(logged, id)
			}
		},
	})

	if _, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig"); err != nil {
		t.Fatalf("ProcessWebhook returned error: %v", err)
	}

	if len(logged) == 0 {
		t.Fatal("expected session id to be logged")
	}
	for _, id := range logged {
		if id != "cs_test_123" {
			t.Errorf("expected control characters stripped from logged session id, got %q", id)
		}
	}
}

func TestProcessWebhookMalformedMetadata(t *testing.T) {
	checkout := completedCheckoutFixture()
	checkout.Metadata = map[string]string{metadataItemsKey: "{not json"}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Decoder: decoderReturning(checkout),
		Orders: &stubOrderSubmitter{
			createFn: func(context.Context, domain.FulfillmentOrder, bool) (fulfillment.OrderConfirmation, error) {
				t.Fatal("order should not be submitted with malformed metadata")
				return fulfillment.OrderConfirmation{}, nil
			},
		},
	})

	result, err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("ProcessWebhook returned error: %v", err)
	}
	if result.Submitted {
		t.Errorf("expected no submission, got %+v", result)
	}
}
