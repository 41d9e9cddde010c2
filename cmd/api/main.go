package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/papertide/storefront-api/internal/fulfillment"
	"github.com/papertide/storefront-api/internal/handlers"
	"github.com/papertide/storefront-api/internal/payments"
	"github.com/papertide/storefront-api/internal/platform/config"
	"github.com/papertide/storefront-api/internal/platform/dedup"
	"github.com/papertide/storefront-api/internal/platform/observability"
	"github.com/papertide/storefront-api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey: cfg.Stripe.SecretKey,
		Logger: observability.EventLogger(logger.Named("payments")),
		Clock:  time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise stripe provider", zap.Error(err))
	}

	webhookDecoder, err := payments.NewStripeWebhookDecoder(cfg.Stripe.WebhookSecret)
	if err != nil {
		logger.Fatal("failed to initialise webhook decoder", zap.Error(err))
	}

	fulfillmentClient, err := fulfillment.NewClient(fulfillment.ClientConfig{
		BaseURL:    cfg.Fulfillment.BaseURL,
		APIToken:   cfg.Fulfillment.APIToken,
		Timeout:    cfg.Fulfillment.Timeout,
		MaxRetries: cfg.Fulfillment.MaxRetries,
		Logger:     observability.EventLogger(logger.Named("fulfillment")),
	})
	if err != nil {
		logger.Fatal("failed to initialise fulfillment client", zap.Error(err))
	}

	dedupStore := dedup.NewMemoryStore()

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Dedup.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Dedup.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("dedup")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := dedupStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Dedup.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("dedup cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("dedup cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Payments:           stripeProvider,
		MetadataValueLimit: cfg.Stripe.MetadataValueLimit,
		Clock:              time.Now,
		Logger:             observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Decoder:       webhookDecoder,
		Orders:        fulfillmentClient,
		Dedup:         dedupStore,
		DedupTTL:      cfg.Dedup.TTL,
		ConfirmOrders: true,
		Clock:         time.Now,
		Logger:        observability.EventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Provider: fulfillmentClient,
		Logger:   observability.EventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	shippingService, err := services.NewShippingService(services.ShippingServiceDeps{
		Provider: fulfillmentClient,
		Logger:   observability.EventLogger(logger.Named("shipping")),
	})
	if err != nil {
		logger.Fatal("failed to initialise shipping service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}
	if cfg.CORS.AllowedOrigin != "" {
		middlewares = append(middlewares, observability.CORSMiddleware(cfg.CORS.AllowedOrigin))
	}

	checkoutURLs := handlers.CheckoutURLs{
		Success: cfg.CORS.AllowedOrigin + "/success?session_id={CHECKOUT_SESSION_ID}",
		Cancel:  cfg.CORS.AllowedOrigin + "/cart",
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(time.Now)),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(catalogService).Routes),
		handlers.WithShippingRoutes(handlers.NewShippingHandlers(shippingService).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService, checkoutURLs).Routes),
		handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(orderService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
