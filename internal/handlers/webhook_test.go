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

type stubOrderService struct {
	processFn func(ctx context.Context, payload []byte, signatureHeader string) (services.WebhookResult, error)
}

func (s *stubOrderService) ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) (services.WebhookResult, error) {
	return s.processFn(ctx, payload, signatureHeader)
}

func newWebhookRouter(svc services.OrderService) chi.Router {
	r := chi.NewRouter()
	NewWebhookHandlers(svc).Routes(r)
	return r
}

func TestWebhookAcknowledgesDelivery(t *testing.T) {
	var gotPayload []byte
	var gotSignature string
	router := newWebhookRouter(&stubOrderService{
		processFn: func(_ context.Context, payload []byte, signature string) (services.WebhookResult, error) {
			gotPayload = payload
			gotSignature = signature
			return services.WebhookResult{Submitted: true, OrderRef: "01HV3E8ZJ0"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if string(gotPayload) != `{"type":"checkout.session.completed"}` {
		t.Errorf("expected raw body passthrough, got %q", gotPayload)
	}
	if gotSignature != "t=1,v1=abc" {
		t.Errorf("unexpected signature header: %s", gotSignature)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["received"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestWebhookInvalidSignatureIsPlainText(t *testing.T) {
	router := newWebhookRouter(&stubOrderService{
		processFn: func(context.Context, []byte, string) (services.WebhookResult, error) {
			return services.WebhookResult{}, services.ErrWebhookInvalidSignature
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.Contains(ct, "application/json") {
		t.Errorf("expected plain text response, got %s", ct)
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	router := newWebhookRouter(&stubOrderService{
		processFn: func(context.Context, []byte, string) (services.WebhookResult, error) {
			return services.WebhookResult{Duplicate: true, OrderRef: "01HV3E8ZJ0"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate delivery, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["received"] != true || resp["duplicate"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
}
