package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/papertide/storefront-api/internal/services"
)

type stubCheckoutService struct {
	createFn func(ctx context.Context, cmd services.CreateCheckoutSessionCommand) (services.CheckoutSession, error)
}

func (s *stubCheckoutService) CreateCheckoutSession(ctx context.Context, cmd services.CreateCheckoutSessionCommand) (services.CheckoutSession, error) {
	return s.createFn(ctx, cmd)
}

func newCheckoutRouter(svc services.CheckoutService) chi.Router {
	h := NewCheckoutHandlers(svc, CheckoutURLs{
		Success: "https://shop.example.com/success",
		Cancel:  "https://shop.example.com/cancel",
	})
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		h.Routes(api)
	})
	return r
}

func TestCreateCheckoutSessionEndpoint(t *testing.T) {
	var captured services.CreateCheckoutSessionCommand
	router := newCheckoutRouter(&stubCheckoutService{
		createFn: func(_ context.Context, cmd services.CreateCheckoutSessionCommand) (services.CheckoutSession, error) {
			captured = cmd
			return services.CheckoutSession{
				SessionID: "cs_test_123",
				URL:       "https://checkout.stripe.com/pay/cs_test_123",
			}, nil
		},
	})

	body := `{
		"items": [{"productId":"361","variantId":"4011","name":"Classic Tee","price":"50.00","quantity":2}],
		"shipping": {"id":"STANDARD","name":"Standard","rate":"8.50"},
		"customer": {"email":"buyer@example.com"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool   `json:"success"`
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.SessionID != "cs_test_123" || resp.URL == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(captured.Items) != 1 || captured.Items[0].VariantID != "4011" || captured.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", captured.Items)
	}
	if captured.Items[0].UnitPrice.StringFixed(2) != "50.00" {
		t.Errorf("unexpected price: %s", captured.Items[0].UnitPrice)
	}
	if captured.Shipping.ID != "STANDARD" || captured.Shipping.Rate.StringFixed(2) != "8.50" {
		t.Errorf("unexpected shipping: %+v", captured.Shipping)
	}
	if captured.SuccessURL != "https://shop.example.com/success" {
		t.Errorf("expected configured success url, got %s", captured.SuccessURL)
	}
}

func TestCreateCheckoutSessionEmptyCart(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{
		createFn: func(context.Context, services.CreateCheckoutSessionCommand) (services.CheckoutSession, error) {
			return services.CheckoutSession{}, services.ErrCheckoutEmptyCart
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(`{"items":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["success"] != false || resp["code"] != "empty_cart" {
		t.Errorf("unexpected error payload: %v", resp)
	}
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{
		createFn: func(context.Context, services.CreateCheckoutSessionCommand) (services.CheckoutSession, error) {
			return services.CheckoutSession{}, services.ErrCheckoutPaymentFailed
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(`{"items":[{"productId":"1","name":"Tee","price":"10.00","quantity":1}]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "stripe") {
		t.Error("provider detail must not leak to the client")
	}
}

func TestCreateCheckoutSessionMalformedBody(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{
		createFn: func(context.Context, services.CreateCheckoutSessionCommand) (services.CheckoutSession, error) {
			t.Fatal("service should not be called for malformed JSON")
			return services.CheckoutSession{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
