package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/pricing"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (URMART_ prefix), flags, a .env file or YAML config
// files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (URMART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MaxConns    int32  `default:"20" usage:"Maximum PostgreSQL pool connections" flag:"max-conns"`
	Auth        AuthConfig
	Pricing     PricingConfig
	Checkout    CheckoutConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// AuthConfig controls bearer token signing.
type AuthConfig struct {
	Secret   string        `usage:"HS256 signing secret (URMART_AUTH_SECRET)" flag:"auth-secret"`
	TokenTTL time.Duration `default:"72h" usage:"Token lifetime" flag:"token-ttl"`
}

// PricingConfig holds the delivery and loyalty parameters. Amounts are
// decimal strings.
type PricingConfig struct {
	FreeDeliveryThreshold string `default:"299" usage:"Subtotal at which delivery becomes free"`
	DeliveryFee           string `default:"49" usage:"Delivery fee below the threshold"`
	LoyaltyRate           string `default:"0.05" usage:"Loyalty discount rate applied to every subtotal"`
}

// Policy parses the configured amounts.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	var (
		p   pricing.Policy
		err error
	)
	if p.FreeDeliveryThreshold, err = decimal.NewFromString(c.FreeDeliveryThreshold); err != nil {
		return p, errors.Wrap(err, "free delivery threshold")
	}
	if p.DeliveryFee, err = decimal.NewFromString(c.DeliveryFee); err != nil {
		return p, errors.Wrap(err, "delivery fee")
	}
	if p.LoyaltyRate, err = decimal.NewFromString(c.LoyaltyRate); err != nil {
		return p, errors.Wrap(err, "loyalty rate")
	}
	return p, nil
}

// CheckoutConfig bounds the checkout transaction.
type CheckoutConfig struct {
	Timeout time.Duration `default:"10s" usage:"Maximum duration of one checkout" flag:"checkout-timeout"`
}

// RedisConfig enables the catalog cache and shared rate limiting when Addr
// is set.
type RedisConfig struct {
	Addr     string        `usage:"Redis address (host:port); empty disables Redis" flag:"redis-addr"`
	Password string        `usage:"Redis password" flag:"redis-password"`
	DB       int           `default:"0" usage:"Redis database number" flag:"redis-db"`
	TTL      time.Duration `default:"1m" usage:"Catalog cache TTL" flag:"cache-ttl"`
}

// KafkaConfig enables order event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka brokers; empty disables order events" flag:"kafka-brokers"`
	Topic   string   `default:"urmart.orders" usage:"Order events topic" flag:"kafka-topic"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env, then environment variables and YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "URMART",
		Files:     []string{"config.yaml", "/etc/urmart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set URMART_DATABASE_URL or DATABASE_URL")
	case c.Auth.Secret == "":
		return errors.New("auth secret is required: set URMART_AUTH_SECRET or JWT_SECRET")
	}
	if _, err := c.Pricing.Policy(); err != nil {
		return errors.Wrap(err, "pricing")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (DATABASE_URL, PORT, JWT_SECRET) onto the URMART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Auth.Secret == "" {
		c.Auth.Secret = os.Getenv("JWT_SECRET")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
