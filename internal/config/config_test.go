package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"REDIS_URL":        "",
		"CATALOG_BASE_URL": "http://catalog.local",
		"SUBMIT_URL":       "http://backend.local/api/orders",
	})
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"CATALOG_BASE_URL": "http://catalog.local/",
		"SUBMIT_URL":       "http://backend.local/api/orders",
		"PORT":             "",
		"TAX_RATE_BPS":     "",
		"SESSION_TTL":      "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, int64(700), cfg.TaxRateBps)
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.Equal(t, "http://catalog.local", cfg.CatalogBaseURL, "trailing slash trimmed")
	require.Equal(t, "THB", cfg.CurrencyCode)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"CATALOG_BASE_URL": "http://catalog.local",
		"SUBMIT_URL":       "http://backend.local/api/orders",
		"TAX_RATE_BPS":     "1000",
		"SEARCH_RATE_MAX":  "25",
		"PORT":             ":9090",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), cfg.TaxRateBps)
	require.Equal(t, 25, cfg.SearchRateMax)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
