package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "4000"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultFulfillmentBaseURL = "https://api.printful.com"
	defaultFulfillmentTimeout = 10 * time.Second
	defaultFulfillmentRetries = 3
	defaultDedupTTL           = 72 * time.Hour
	defaultDedupCleanupEvery  = time.Hour
	defaultDedupCleanupBatch  = 200
	defaultMetadataValueLimit = 500
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Stripe      StripeConfig
	Fulfillment FulfillmentConfig
	CORS        CORSConfig
	Dedup       DedupConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StripeConfig collects payment processor secrets.
type StripeConfig struct {
	SecretKey          string
	WebhookSecret      string
	MetadataValueLimit int
}

// FulfillmentConfig configures the print-on-demand provider client.
type FulfillmentConfig struct {
	APIToken   string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// CORSConfig restricts which browser origin may call the API.
type CORSConfig struct {
	AllowedOrigin string
}

// DedupConfig controls the processed-session store guarding webhook replays.
type DedupConfig struct {
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Stripe: StripeConfig{
			SecretKey:          stringWithDefault(lookup, "STRIPE_SECRET_KEY", ""),
			WebhookSecret:      stringWithDefault(lookup, "STRIPE_WEBHOOK_SECRET", ""),
			MetadataValueLimit: intWithDefault(lookup, "STRIPE_METADATA_VALUE_LIMIT", defaultMetadataValueLimit),
		},
		Fulfillment: FulfillmentConfig{
			APIToken:   stringWithDefault(lookup, "PRINTFUL_API_TOKEN", ""),
			BaseURL:    stringWithDefault(lookup, "PRINTFUL_BASE_URL", defaultFulfillmentBaseURL),
			Timeout:    durationWithDefault(lookup, "PRINTFUL_TIMEOUT", defaultFulfillmentTimeout),
			MaxRetries: intWithDefault(lookup, "PRINTFUL_MAX_RETRIES", defaultFulfillmentRetries),
		},
		CORS: CORSConfig{
			AllowedOrigin: stringWithDefault(lookup, "FRONTEND_ORIGIN", ""),
		},
		Dedup: DedupConfig{
			TTL:              durationWithDefault(lookup, "WEBHOOK_DEDUP_TTL", defaultDedupTTL),
			CleanupInterval:  durationWithDefault(lookup, "WEBHOOK_DEDUP_CLEANUP_INTERVAL", defaultDedupCleanupEvery),
			CleanupBatchSize: intWithDefault(lookup, "WEBHOOK_DEDUP_CLEANUP_BATCH", defaultDedupCleanupBatch),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		missing = append(missing, "Stripe.SecretKey")
	}
	if strings.TrimSpace(cfg.Stripe.WebhookSecret) == "" {
		missing = append(missing, "Stripe.WebhookSecret")
	}
	if strings.TrimSpace(cfg.Fulfillment.APIToken) == "" {
		missing = append(missing, "Fulfillment.APIToken")
	}
	if cfg.Stripe.MetadataValueLimit <= 0 {
		missing = append(missing, "Stripe.MetadataValueLimit")
	}
	if cfg.Dedup.TTL <= 0 {
		missing = append(missing, "Dedup.TTL")
	}
	if cfg.Dedup.CleanupInterval <= 0 {
		missing = append(missing, "Dedup.CleanupInterval")
	}
	if cfg.Dedup.CleanupBatchSize <= 0 {
		missing = append(missing, "Dedup.CleanupBatchSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
