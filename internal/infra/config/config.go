package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Maps    MapsConfig    `yaml:"maps"`
	Gourmet GourmetConfig `yaml:"gourmet"`
	Cache   CacheConfig   `yaml:"cache"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// LLMConfig contains ChatGPT/OpenAI settings. An empty APIKey disables the
// LLM backed insight and romanization.
type LLMConfig struct {
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	Model         string        `yaml:"model"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	TokenEncoding string        `yaml:"tokenEncoding"`
}

// MapsConfig points at the geocoding and places web services.
type MapsConfig struct {
	APIKey     string        `yaml:"apiKey"`
	GeocodeURL string        `yaml:"geocodeUrl"`
	NearbyURL  string        `yaml:"nearbyUrl"`
	DetailsURL string        `yaml:"detailsUrl"`
	Language   string        `yaml:"language"`
	Region     string        `yaml:"region"`
	Timeout    time.Duration `yaml:"timeout"`
}

// GourmetConfig holds the selection and presentation tunables.
type GourmetConfig struct {
	SearchRadiusMeters       int           `yaml:"searchRadiusMeters"`
	ShortlistSize            int           `yaml:"shortlistSize"`
	PoolSize                 int           `yaml:"poolSize"`
	QualityThreshold         float64       `yaml:"qualityThreshold"`
	WalkSpeedMetersPerMinute float64       `yaml:"walkSpeedMetersPerMinute"`
	MaxWalkMinutes           int           `yaml:"maxWalkMinutes"`
	ReviewCountThreshold     int           `yaml:"reviewCountThreshold"`
	ReviewCap                int           `yaml:"reviewCap"`
	CallTimeout              time.Duration `yaml:"callTimeout"`
	EnrichConcurrency        int           `yaml:"enrichConcurrency"`
	InsightStrategy          string        `yaml:"insightStrategy"`
	RomanizeNames            bool          `yaml:"romanizeNames"`
	PromptTokenBudget        int           `yaml:"promptTokenBudget"`
	InsightPrompt            string        `yaml:"insightPrompt"`
}

// CacheConfig controls the geocode cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
	Valkey  ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared cache. An
// empty Addr keeps the cache in process memory.
type ValkeyConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setDuration(&cfg.HTTP.RequestTimeout, "HTTP_REQUEST_TIMEOUT")
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}

	setString(&cfg.Maps.APIKey, "MAPS_API_KEY")
	setString(&cfg.Maps.Language, "MAPS_LANGUAGE")
	setString(&cfg.Maps.Region, "MAPS_REGION")

	setInt(&cfg.Gourmet.SearchRadiusMeters, "GOURMET_SEARCH_RADIUS")
	setInt(&cfg.Gourmet.PoolSize, "GOURMET_POOL_SIZE")
	setInt(&cfg.Gourmet.ReviewCap, "GOURMET_REVIEW_CAP")
	setDuration(&cfg.Gourmet.CallTimeout, "GOURMET_CALL_TIMEOUT")
	setString(&cfg.Gourmet.InsightStrategy, "GOURMET_INSIGHT_STRATEGY")
	setBool(&cfg.Gourmet.RomanizeNames, "GOURMET_ROMANIZE_NAMES")
	if v := os.Getenv("GOURMET_QUALITY_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Gourmet.QualityThreshold = parsed
		}
	}

	setBool(&cfg.Cache.Enabled, "CACHE_ENABLED")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")
	setString(&cfg.Cache.Valkey.Addr, "CACHE_VALKEY_ADDR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  25 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Model:         "gpt-4o-mini",
			Temperature:   0.4,
			Timeout:       10 * time.Second,
			TokenEncoding: "cl100k_base",
		},
		Maps: MapsConfig{
			Language: "ja",
			Region:   "jp",
			Timeout:  10 * time.Second,
		},
		Gourmet: GourmetConfig{
			SearchRadiusMeters:       1200,
			ShortlistSize:            5,
			PoolSize:                 12,
			QualityThreshold:         4.0,
			WalkSpeedMetersPerMinute: 80,
			MaxWalkMinutes:           15,
			ReviewCountThreshold:     10,
			ReviewCap:                5,
			CallTimeout:              5 * time.Second,
			EnrichConcurrency:        5,
			InsightStrategy:          "llm",
			RomanizeNames:            true,
			PromptTokenBudget:        600,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
			Prefix:  "geo",
		},
	}
}

// Validate ensures the configuration is safe to use. Provider credentials
// are deliberately not required here.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RequestTimeout < 0 {
		return errors.New("http.requestTimeout cannot be negative")
	}
	g := c.Gourmet
	if g.SearchRadiusMeters <= 0 {
		return errors.New("gourmet.searchRadiusMeters must be positive")
	}
	if g.ShortlistSize <= 0 {
		return errors.New("gourmet.shortlistSize must be positive")
	}
	if g.PoolSize < g.ShortlistSize {
		return errors.New("gourmet.poolSize must be at least gourmet.shortlistSize")
	}
	if g.QualityThreshold < 1 || g.QualityThreshold > 5 {
		return errors.New("gourmet.qualityThreshold must be within [1, 5]")
	}
	if g.WalkSpeedMetersPerMinute <= 0 {
		return errors.New("gourmet.walkSpeedMetersPerMinute must be positive")
	}
	if g.MaxWalkMinutes <= 0 {
		return errors.New("gourmet.maxWalkMinutes must be positive")
	}
	if g.ReviewCap <= 0 || g.ReviewCap > 8 {
		return errors.New("gourmet.reviewCap must be within [1, 8]")
	}
	if g.CallTimeout <= 0 {
		return errors.New("gourmet.callTimeout must be positive")
	}
	if g.EnrichConcurrency <= 0 {
		return errors.New("gourmet.enrichConcurrency must be positive")
	}
	switch g.InsightStrategy {
	case "llm", "keywords":
	default:
		return fmt.Errorf("gourmet.insightStrategy %q must be llm or keywords", g.InsightStrategy)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	return nil
}
