package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MAPS_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 1200, cfg.Gourmet.SearchRadiusMeters)
	require.Equal(t, 12, cfg.Gourmet.PoolSize)
	require.Equal(t, 4.0, cfg.Gourmet.QualityThreshold)
	require.Equal(t, 5*time.Second, cfg.Gourmet.CallTimeout)
	require.Equal(t, "ja", cfg.Maps.Language)
	require.Empty(t, cfg.Maps.APIKey)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
gourmet:
  poolSize: 15
  reviewCap: 8
  insightStrategy: keywords
cache:
  valkey:
    addr: "localhost:6379"
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MAPS_API_KEY", "maps-key")
	t.Setenv("GOURMET_CALL_TIMEOUT", "3s")
	t.Setenv("GOURMET_ROMANIZE_NAMES", "false")
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, 15, cfg.Gourmet.PoolSize)
	require.Equal(t, 8, cfg.Gourmet.ReviewCap)
	require.Equal(t, "keywords", cfg.Gourmet.InsightStrategy)
	require.Equal(t, "localhost:6379", cfg.Cache.Valkey.Addr)
	require.Equal(t, "maps-key", cfg.Maps.APIKey)
	require.Equal(t, 3*time.Second, cfg.Gourmet.CallTimeout)
	require.False(t, cfg.Gourmet.RomanizeNames)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "pool smaller than shortlist", mutate: func(c *Config) { c.Gourmet.PoolSize = 3 }, want: "gourmet.poolSize must be at least gourmet.shortlistSize"},
		{name: "review cap too large", mutate: func(c *Config) { c.Gourmet.ReviewCap = 9 }, want: "gourmet.reviewCap must be within [1, 8]"},
		{name: "unknown strategy", mutate: func(c *Config) { c.Gourmet.InsightStrategy = "magic" }, want: `gourmet.insightStrategy "magic" must be llm or keywords`},
		{name: "threshold out of range", mutate: func(c *Config) { c.Gourmet.QualityThreshold = 6 }, want: "gourmet.qualityThreshold must be within [1, 5]"},
		{name: "empty address", mutate: func(c *Config) { c.HTTP.Address = "" }, want: "http.address cannot be empty"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			require.EqualError(t, cfg.Validate(), tt.want)
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
