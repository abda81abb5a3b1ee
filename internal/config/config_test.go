package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":        "postgres://localhost/basket",
		"REDIS_URL":           "redis://localhost:6379/0",
		"ADMIN_JWT_SECRET":    "secret",
		"RATE_LIMIT_STRATEGY": "",
		"BASKET_TTL":          "",
		"CURRENCY_CODE":       "",
		"PORT":                "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.Equal(t, 72*time.Hour, cfg.BasketTTL)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["RATE_LIMIT_STRATEGY"] = "FIXED"
	env["BASKET_TTL"] = "30m"
	env["CURRENCY_CODE"] = "gbp"
	env["PORT"] = ":9090"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
	require.Equal(t, 30*time.Minute, cfg.BasketTTL)
	require.Equal(t, "GBP", cfg.CurrencyCode)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := baseEnv()
	env["ADMIN_JWT_SECRET"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	env := baseEnv()
	env["RATE_LIMIT_STRATEGY"] = "token-bucket"
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	require.Equal(t, 5*time.Minute, parseDuration("nonsense", "5m"))
}
