package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hearthbakery/storefront/internal/ratelimiter"
	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	HTTPAddr        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	CORSOrigins     []string

	Shopify     ShopifyConfig
	Redis       RedisConfig
	Content     ContentConfig
	Kafka       KafkaConfig
	RateLimiter ratelimiter.Config
}

type ShopifyConfig struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	WebhookSecret   string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	Namespace  string
	CatalogTTL time.Duration
}

type ContentConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 15*time.Second, &errs),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
		Shopify: ShopifyConfig{
			StoreDomain:     os.Getenv("SHOPIFY_STORE_DOMAIN"),
			StorefrontToken: os.Getenv("SHOPIFY_STOREFRONT_TOKEN"),
			APIVersion:      getEnv("SHOPIFY_API_VERSION", "2024-07"),
			WebhookSecret:   os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		},
		Redis: RedisConfig{
			Addr:       os.Getenv("REDIS_ADDR"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         getEnvInt("REDIS_DB", 0, &errs),
			Namespace:  getEnv("KV_NAMESPACE", "hearth"),
			CatalogTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute, &errs),
		},
		Content: ContentConfig{
			ProjectID:  os.Getenv("SANITY_PROJECT_ID"),
			Dataset:    getEnv("SANITY_DATASET", "production"),
			APIVersion: getEnv("SANITY_API_VERSION", "2023-05-03"),
			Token:      os.Getenv("SANITY_TOKEN"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "cart-completed"),
		},
		RateLimiter: ratelimiter.Config{
			Enabled:              getEnvBool("RATE_LIMIT_ENABLED", false, &errs),
			RequestsPerTimeFrame: getEnvInt("RATE_LIMIT_REQUESTS", 120, &errs),
			TimeFrame:            getEnvDuration("RATE_LIMIT_WINDOW", time.Minute, &errs),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// IsProduction reports whether unverified webhooks must be refused.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "production", "prod":
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool, errs *[]string) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
