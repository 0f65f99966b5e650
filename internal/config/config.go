package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/openkassa/backend-kassa/internal/loyalty"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	CartTTL         time.Duration
	IdempotencyTTL  time.Duration
	CatalogCacheTTL time.Duration

	CurrencyCode string
	CashRounding bool

	LoyaltyEnabled              bool
	LoyaltyPointsPerEuro        int64
	LoyaltyCentsPerPoint        int64
	LoyaltyMinRedeemPoints      int64
	LoyaltyMaxRedemptionPercent int64

	CatalogDefaultLimit int
	CatalogMaxLimit     int

	LoginRatePerMinute int64

	ScanChannelPrefix string
	ScanProcessedTTL  time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		CartTTL:         parseDuration(k.String("CART_TTL"), "24h"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),

		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "EUR"),
		CashRounding: parseBoolDefault(k.String("CASH_ROUNDING"), true),

		LoyaltyEnabled:              parseBoolDefault(k.String("LOYALTY_ENABLED"), true),
		LoyaltyPointsPerEuro:        parseInt64(k.String("LOYALTY_POINTS_PER_EURO"), 10),
		LoyaltyCentsPerPoint:        parseInt64(k.String("LOYALTY_CENTS_PER_POINT"), 1),
		LoyaltyMinRedeemPoints:      parseInt64(k.String("LOYALTY_MIN_REDEEM_POINTS"), 100),
		LoyaltyMaxRedemptionPercent: parseInt64(k.String("LOYALTY_MAX_REDEMPTION_PERCENT"), 50),

		CatalogDefaultLimit: int(parseInt64(k.String("CATALOG_DEFAULT_LIMIT"), 20)),
		CatalogMaxLimit:     int(parseInt64(k.String("CATALOG_MAX_LIMIT"), 100)),

		LoginRatePerMinute: parseInt64(k.String("LOGIN_RATE_PER_MINUTE"), 10),

		ScanChannelPrefix: valueOrDefault(k.String("SCAN_CHANNEL_PREFIX"), "kassa:scan"),
		ScanProcessedTTL:  parseDuration(k.String("SCAN_PROCESSED_TTL"), "10m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.LoyaltyMaxRedemptionPercent < 0 || cfg.LoyaltyMaxRedemptionPercent > 100 {
		return nil, errors.New("LOYALTY_MAX_REDEMPTION_PERCENT must be within 0..100")
	}

	return cfg, nil
}

// LoyaltyConfig assembles the loyalty program value object threaded through
// the computation engine.
func (c *Config) LoyaltyConfig() loyalty.Config {
	return loyalty.Config{
		Enabled:              c.LoyaltyEnabled,
		PointsPerEuro:        c.LoyaltyPointsPerEuro,
		CentsPerPoint:        c.LoyaltyCentsPerPoint,
		MinRedeemPoints:      c.LoyaltyMinRedeemPoints,
		MaxRedemptionPercent: c.LoyaltyMaxRedemptionPercent,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
