package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"STORE_DRIVER":                 "memory",
		"JWT_SECRET":                   "secret",
		"DATABASE_URL":                 "",
		"REDIS_URL":                    "",
		"PORT":                         "",
		"TILL_DENOMINATIONS":           "",
		"TILL_DENOMINATION_SEED_COUNT": "",
		"TILL_LOCK_ENABLED":            "",
		"RECEIPT_EMAIL_ENABLED":        "",
		"RATE_LIMIT_BILLS":             "",
	}
}

func withEnv(overrides map[string]string) map[string]string {
	env := baseEnv()
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, []int64{500, 50, 20, 10, 5, 2, 1}, cfg.Till.Denominations)
	require.Equal(t, int64(50), cfg.Till.SeedCount)
	require.Equal(t, "60-M", cfg.RateLimitBills)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.True(t, cfg.MigrateOnStart)
	require.False(t, cfg.Till.LockEnabled)
}

func TestLoadDenominationsSortedDescending(t *testing.T) {
	cfg, err := LoadForTests(withEnv(map[string]string{"TILL_DENOMINATIONS": "1, 5,100,20"}))
	require.NoError(t, err)
	require.Equal(t, []int64{100, 20, 5, 1}, cfg.Till.Denominations)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"zero denomination":      {"TILL_DENOMINATIONS": "10,0"},
		"duplicate denomination": {"TILL_DENOMINATIONS": "10,10"},
		"postgres without url":   {"STORE_DRIVER": "postgres"},
		"unknown driver":         {"STORE_DRIVER": "sqlite"},
		"lock without redis":     {"TILL_LOCK_ENABLED": "true"},
		"receipts without redis": {"RECEIPT_EMAIL_ENABLED": "true"},
		"missing jwt secret":     {"JWT_SECRET": ""},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadForTests(withEnv(overrides))
			require.Error(t, err)
		})
	}
}

func TestLoadPostgres(t *testing.T) {
	cfg, err := LoadForTests(withEnv(map[string]string{
		"STORE_DRIVER":      "Postgres",
		"DATABASE_URL":      "postgres://kasir@localhost/kasir",
		"REDIS_URL":         "redis://localhost:6379/0",
		"TILL_LOCK_ENABLED": "yes",
		"PORT":              ":9090",
	}))
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.True(t, cfg.Till.LockEnabled)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
