package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultDenominations is the till's face value set when TILL_DENOMINATIONS is
// unset.
const DefaultDenominations = "500,50,20,10,5,2,1"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreDriver        string
	DatabaseURL        string
	MigrateOnStart     bool
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret            string
	OperatorUsername     string
	OperatorPasswordHash string
	AccessTokenTTL       time.Duration

	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	RateLimitBills  string

	Till TillConfig

	ReceiptEmailEnabled bool
	ReceiptEmailFrom    string
	WorkerConcurrency   int
}

// TillConfig configures the cash drawer.
type TillConfig struct {
	// Denominations is the canonical face value set, largest first.
	Denominations     []int64
	SeedCount         int64
	LowCountThreshold int64
	LockEnabled       bool
	LockTTL           time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	denoms, err := ParseDenominations(valueOrDefault(k.String("TILL_DENOMINATIONS"), DefaultDenominations))
	if err != nil {
		return nil, fmt.Errorf("TILL_DENOMINATIONS: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreDriver:        strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:        k.String("DATABASE_URL"),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START"), true),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:            k.String("JWT_SECRET"),
		OperatorUsername:     valueOrDefault(k.String("OPERATOR_USERNAME"), "kasir"),
		OperatorPasswordHash: strings.TrimSpace(k.String("OPERATOR_PASSWORD_HASH")),
		AccessTokenTTL:       parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitBills:  valueOrDefault(k.String("RATE_LIMIT_BILLS"), "60-M"),

		Till: TillConfig{
			Denominations:     denoms,
			SeedCount:         parseInt(k.String("TILL_DENOMINATION_SEED_COUNT"), 50),
			LowCountThreshold: parseInt(k.String("TILL_LOW_COUNT_THRESHOLD"), 5),
			LockEnabled:       parseBool(k.String("TILL_LOCK_ENABLED"), false),
			LockTTL:           parseDuration(k.String("TILL_LOCK_TTL"), "10s"),
		},

		ReceiptEmailEnabled: parseBool(k.String("RECEIPT_EMAIL_ENABLED"), false),
		ReceiptEmailFrom:    valueOrDefault(k.String("RECEIPT_EMAIL_FROM"), "kasir@toko.local"),
		WorkerConcurrency:   int(parseInt(k.String("WORKER_CONCURRENCY"), 5)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Till.SeedCount < 0 {
		return errors.New("TILL_DENOMINATION_SEED_COUNT must not be negative")
	}
	if c.Till.LockEnabled && c.RedisURL == "" {
		return errors.New("TILL_LOCK_ENABLED requires REDIS_URL")
	}
	if c.ReceiptEmailEnabled && c.RedisURL == "" {
		return errors.New("RECEIPT_EMAIL_ENABLED requires REDIS_URL")
	}
	return nil
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

// ParseDenominations reads a comma separated list of distinct positive face
// values and returns them largest first.
func ParseDenominations(value string) ([]int64, error) {
	parts := splitAndTrim(value)
	if len(parts) == 0 {
		return nil, errors.New("at least one denomination is required")
	}
	seen := make(map[int64]struct{}, len(parts))
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid denomination %q", part)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("duplicate denomination %d", v)
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out, nil
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
		return strings.TrimSpace(value)
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

func parseInt(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests sets env for the duration of Load and restores the previous
// values afterwards. An empty value unsets the variable.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, value); err != nil {
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

func restoreEnv(values map[string]*string) error {
	var errs []string
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
