package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jwoody02/shoppy-go/pkg/enums"
)

const EnvPrefix = "shoppy"

// Environment variable names, exported so tests and tooling reference
// one definition.
const (
	EnvAppEnv          = "SHOPPY_APP_ENV"
	EnvLogLevel        = "SHOPPY_LOG_LEVEL"
	EnvShopDomain      = "SHOPPY_SHOP_DOMAIN"
	EnvStorefrontToken = "SHOPPY_STOREFRONT_TOKEN"
	EnvAPIVersion      = "SHOPPY_API_VERSION"
	EnvStorageDir      = "SHOPPY_STORAGE_DIR"
	EnvFlushDebounce   = "SHOPPY_CART_FLUSH_DEBOUNCE"
	EnvBaselinePolicy  = "SHOPPY_CART_BASELINE_POLICY"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	Shop    ShopConfig
	Storage StorageConfig
	Cart    CartConfig
	Gateway GatewayConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validatePolicy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPPY_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"SHOPPY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPPY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ShopConfig identifies the storefront this client talks to.
type ShopConfig struct {
	Domain          string `envconfig:"SHOPPY_SHOP_DOMAIN" required:"true"`
	StorefrontToken string `envconfig:"SHOPPY_STOREFRONT_TOKEN" required:"true"`
	APIVersion      string `envconfig:"SHOPPY_API_VERSION" default:"2024-01"`
}

// Endpoint returns the GraphQL endpoint for the configured shop.
func (s ShopConfig) Endpoint() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", s.Domain, s.APIVersion)
}

// StorageConfig locates the per-shop durable cart files.
type StorageConfig struct {
	Dir string `envconfig:"SHOPPY_STORAGE_DIR" default:"."`
}

// CartConfig tunes the controller's persistence and sync behavior.
type CartConfig struct {
	FlushDebounce  time.Duration `envconfig:"SHOPPY_CART_FLUSH_DEBOUNCE" default:"100ms"`
	BaselinePolicy string        `envconfig:"SHOPPY_CART_BASELINE_POLICY" default:"advance-immediate"`
}

// Policy returns the parsed baseline policy.
func (c CartConfig) Policy() enums.SyncBaselinePolicy {
	policy, err := enums.ParseSyncBaselinePolicy(c.BaselinePolicy)
	if err != nil {
		return enums.BaselineAdvanceImmediate
	}
	return policy
}

func (c CartConfig) validatePolicy() error {
	if _, err := enums.ParseSyncBaselinePolicy(c.BaselinePolicy); err != nil {
		return fmt.Errorf("%s: %w", EnvBaselinePolicy, err)
	}
	return nil
}

// GatewayConfig tunes the storefront HTTP client.
type GatewayConfig struct {
	HTTPTimeout   time.Duration `envconfig:"SHOPPY_GATEWAY_HTTP_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"SHOPPY_GATEWAY_RETRY_ATTEMPTS" default:"3"`
	RetryBase     time.Duration `envconfig:"SHOPPY_GATEWAY_RETRY_BASE" default:"250ms"`
}
