package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
	"github.com/yanqian/station-gourmet/internal/infra/config"
	"github.com/yanqian/station-gourmet/internal/infra/geocache"
	"github.com/yanqian/station-gourmet/internal/infra/llm/chatgpt"
	"github.com/yanqian/station-gourmet/internal/infra/llm/tokens"
	"github.com/yanqian/station-gourmet/internal/infra/maps/google"
)

func provideGourmetConfig(cfg *config.Config) gourmet.Config {
	g := cfg.Gourmet
	return gourmet.Config{
		SearchRadiusMeters:       g.SearchRadiusMeters,
		ShortlistSize:            g.ShortlistSize,
		PoolSize:                 g.PoolSize,
		QualityThreshold:         g.QualityThreshold,
		WalkSpeedMetersPerMinute: g.WalkSpeedMetersPerMinute,
		MaxWalkMinutes:           g.MaxWalkMinutes,
		ReviewCountThreshold:     g.ReviewCountThreshold,
		ReviewCap:                g.ReviewCap,
		CallTimeout:              g.CallTimeout,
		EnrichConcurrency:        g.EnrichConcurrency,
		InsightStrategy:          g.InsightStrategy,
		RomanizeNames:            g.RomanizeNames,
		PromptTokenBudget:        g.PromptTokenBudget,
		InsightPrompt:            g.InsightPrompt,
		Model:                    cfg.LLM.Model,
		Temperature:              cfg.LLM.Temperature,
		CacheTTL:                 cfg.Cache.TTL,
	}
}

// provideMapsClient returns nil without credentials; the service then answers
// every request with a configuration error instead of failing startup.
func provideMapsClient(cfg *config.Config, logger *slog.Logger) gourmet.MapsClient {
	if strings.TrimSpace(cfg.Maps.APIKey) == "" {
		logger.Warn("maps api key not set, recommendations will report config_missing")
		return nil
	}
	client, err := google.NewClient(google.Options{
		APIKey:     cfg.Maps.APIKey,
		GeocodeURL: cfg.Maps.GeocodeURL,
		NearbyURL:  cfg.Maps.NearbyURL,
		DetailsURL: cfg.Maps.DetailsURL,
		Language:   cfg.Maps.Language,
		Region:     cfg.Maps.Region,
		Timeout:    cfg.Maps.Timeout,
	})
	if err != nil {
		logger.Error("failed to build maps client", "error", err)
		return nil
	}
	return client
}

func provideChatClient(cfg *config.Config, logger *slog.Logger) gourmet.ChatClient {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, using keyword insight only")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("failed to build chatgpt client, using keyword insight only", "error", err)
		return nil
	}
	return client
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) gourmet.TokenCounter {
	counter, err := tokens.NewCounter(cfg.LLM.TokenEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, estimating prompt size", "error", err)
	}
	return counter
}

func provideGeoCache(cfg *config.Config, logger *slog.Logger) (gourmet.GeoCache, func()) {
	noop := func() {}
	if !cfg.Cache.Enabled {
		return nil, noop
	}
	if strings.TrimSpace(cfg.Cache.Valkey.Addr) != "" {
		opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return geocache.NewMemoryStore(cfg.Cache.TTL), noop
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return geocache.NewMemoryStore(cfg.Cache.TTL), noop
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
			return geocache.NewMemoryStore(cfg.Cache.TTL), noop
		}
		logger.Info("geocode valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
		return geocache.NewValkeyStore(client, cfg.Cache.Prefix), client.Close
	}
	return geocache.NewMemoryStore(cfg.Cache.TTL), noop
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
