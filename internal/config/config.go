package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment-driven configuration. main loads .env via
// godotenv first, then parses the process environment into this struct.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ProviderSecret string        `env:"PROVIDER_SECRET" envDefault:"dev-provider-secret"`

	CatalogPath string `env:"CATALOG_PATH" envDefault:"configs/beasts.yaml"`

	// RollPrice is the summon cost in token base units (18 decimals).
	RollPrice string `env:"ROLL_PRICE" envDefault:"1000000000000000000"`

	// TokenPriceUSD is the fixed USD price of one whole summon token,
	// 8-decimal fixed point. Default: $1.00.
	TokenPriceUSD int64 `env:"TOKEN_PRICE_USD" envDefault:"100000000"`

	// StaticAssetPrice seeds the development oracle: USD per payment-asset
	// unit, 8-decimal fixed point. Default: $2000.00.
	StaticAssetPrice int64 `env:"STATIC_ASSET_PRICE" envDefault:"200000000000"`

	// OracleMaxAge rejects price signals older than this; zero disables the
	// staleness check.
	OracleMaxAge time.Duration `env:"ORACLE_MAX_AGE" envDefault:"0"`

	// FulfillDelay is how long the local randomness provider waits before
	// delivering a fulfillment. Real providers answer when they answer.
	FulfillDelay time.Duration `env:"FULFILL_DELAY" envDefault:"500ms"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if _, err := cfg.RollPriceAmount(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RollPriceAmount parses RollPrice into base units.
func (c *Config) RollPriceAmount() (*big.Int, error) {
	price, ok := new(big.Int).SetString(c.RollPrice, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid ROLL_PRICE %q", c.RollPrice)
	}
	return price, nil
}
