package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/papertide/storefront-api/internal/services"
)

type stubCatalogService struct {
	listFn func(ctx context.Context) ([]services.Product, error)
	getFn  func(ctx context.Context, id string) (services.ProductDetail, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context) ([]services.Product, error) {
	return s.listFn(ctx)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id string) (services.ProductDetail, error) {
	return s.getFn(ctx, id)
}

func newCatalogRouter(svc services.CatalogService) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		NewCatalogHandlers(svc).Routes(api)
	})
	return r
}

func TestListProductsEndpoint(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{
		listFn: func(context.Context) ([]services.Product, error) {
			return []services.Product{
				{ID: 361, Name: "Classic Tee", ThumbnailURL: "https://cdn.example.com/tee.png"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 1 || resp[0]["name"] != "Classic Tee" || resp[0]["thumbnail_url"] != "https://cdn.example.com/tee.png" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestGetProductEndpoint(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{
		getFn: func(_ context.Context, id string) (services.ProductDetail, error) {
			if id != "361" {
				t.Errorf("unexpected id: %s", id)
			}
			return services.ProductDetail{
				Product: services.Product{ID: 361, Name: "Classic Tee"},
				Variants: []services.ProductVariant{
					{ID: 4011, Name: "Classic Tee / M", Price: decimal.RequireFromString("19.99"), Currency: "USD", InStock: true},
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/361", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ID       int64 `json:"id"`
		Variants []struct {
			ID      int64  `json:"id"`
			Price   string `json:"price"`
			InStock bool   `json:"in_stock"`
		} `json:"variants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != 361 || len(resp.Variants) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Variants[0].Price != "19.99" || !resp.Variants[0].InStock {
		t.Errorf("unexpected variant: %+v", resp.Variants[0])
	}
}

func TestGetProductNotFoundEndpoint(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{
		getFn: func(context.Context, string) (services.ProductDetail, error) {
			return services.ProductDetail{}, services.ErrCatalogNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListProductsUpstreamFailure(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{
		listFn: func(context.Context) ([]services.Product, error) {
			return nil, services.ErrCatalogUnavailable
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
