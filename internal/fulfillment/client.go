package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/papertide/storefront-api/internal/domain"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	retryBaseDelay    = 250 * time.Millisecond
	maxResponseBytes  = 4 << 20
)

var (
	// ErrNotFound is returned when the provider reports no resource at the requested path.
	ErrNotFound = errors.New("fulfillment: resource not found")
	// ErrUnavailable is returned when the provider is failing or the circuit breaker is open.
	ErrUnavailable = errors.New("fulfillment: provider unavailable")
	// ErrRejected is returned when the provider rejects the request as invalid.
	ErrRejected = errors.New("fulfillment: request rejected")
)

// Logger defines the logging contract for fulfillment client operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// ClientConfig configures the provider client.
type ClientConfig struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     Logger
}

// Client talks to the print-on-demand provider's REST API. All calls pass
// through a circuit breaker; read calls additionally retry transient failures
// with exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     Logger
}

// NewClient constructs a provider client from the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fulfillment: base url is required")
	}
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errors.New("fulfillment: api token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "fulfillment-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client-side rejections do not indicate provider health problems.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRejected)
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		maxRetries: maxRetries,
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// ListProducts returns the store's synced catalog products.
func (c *Client) ListProducts(ctx context.Context) ([]SyncProduct, error) {
	body, err := c.doRetry(ctx, http.MethodGet, "/store/products", nil)
	if err != nil {
		return nil, err
	}

	var products []SyncProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("fulfillment: decode product list: %w", err)
	}
	return products, nil
}

// GetProduct returns a single catalog product with its variants.
func (c *Client) GetProduct(ctx context.Context, id string) (ProductDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ProductDetail{}, fmt.Errorf("%w: empty product id", ErrRejected)
	}

	body, err := c.doRetry(ctx, http.MethodGet, "/store/products/"+url.PathEscape(id), nil)
	if err != nil {
		return ProductDetail{}, err
	}

	var detail ProductDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return ProductDetail{}, fmt.Errorf("fulfillment: decode product detail: %w", err)
	}
	return detail, nil
}

// ShippingRates quotes shipping options for a destination and item set.
func (c *Client) ShippingRates(ctx context.Context, req ShippingRateRequest) ([]ShippingRate, error) {
	if strings.TrimSpace(req.Recipient.CountryCode) == "" {
		return nil, fmt.Errorf("%w: recipient country is required", ErrRejected)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrRejected)
	}

	// Quoting is idempotent, so it retries like a read despite being a POST.
	body, err := c.doRetry(ctx, http.MethodPost, "/shipping/rates", req)
	if err != nil {
		return nil, err
	}

	var rates []ShippingRate
	if err := json.Unmarshal(body, &rates); err != nil {
		return nil, fmt.Errorf("fulfillment: decode shipping rates: %w", err)
	}
	return rates, nil
}

// CreateOrder submits an order for fulfillment. When confirm is true the order
// goes straight to production instead of the provider's draft state.
// Submission is never retried; the caller owns redelivery semantics.
func (c *Client) CreateOrder(ctx context.Context, order domain.FulfillmentOrder, confirm bool) (OrderConfirmation, error) {
	if len(order.Items) == 0 {
		return OrderConfirmation{}, fmt.Errorf("%w: order has no items", ErrRejected)
	}

	path := "/orders"
	if confirm {
		path += "?confirm=true"
	}

	body, err := c.do(ctx, http.MethodPost, path, order)
	if err != nil {
		return OrderConfirmation{}, err
	}

	var confirmation OrderConfirmation
	if err := json.Unmarshal(body, &confirmation); err != nil {
		return OrderConfirmation{}, fmt.Errorf("fulfillment: decode order confirmation: %w", err)
	}

	c.logger(ctx, "fulfillment.order.created", map[string]any{
		"orderId":    confirmation.ID,
		"externalId": confirmation.ExternalID,
		"status":     confirmation.Status,
	})
	return confirmation, nil
}

func (c *Client) doRetry(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			c.logger(ctx, "fulfillment.request.retry", map[string]any{
				"method":  method,
				"path":    path,
				"attempt": attempt,
			})
		}

		body, err := c.do(ctx, method, path, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	result, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("fulfillment: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var envelope apiEnvelope
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrRejected, envelope.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("fulfillment: decode response envelope: %w", err)
	}
	return envelope.Result, nil
}
