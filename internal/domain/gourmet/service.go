package gourmet

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/station-gourmet/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/station-gourmet/pkg/errors"
	applog "github.com/yanqian/station-gourmet/pkg/logger"
	"github.com/yanqian/station-gourmet/pkg/metrics"
)

// Service exposes the station restaurant recommendation pipeline.
type Service interface {
	Recommend(ctx context.Context, req Request) (Response, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// GeoResolver resolves an address. found=false means the provider had no
// usable result, which is not an error.
type GeoResolver interface {
	Geocode(ctx context.Context, address string) (coord Coordinate, found bool, err error)
}

// CandidateSource lists venues around a coordinate.
type CandidateSource interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]Candidate, error)
}

// DetailSource fetches review texts for one venue.
type DetailSource interface {
	Reviews(ctx context.Context, placeID string, limit int) ([]string, error)
}

// MapsClient bundles the map provider capabilities used by the pipeline.
type MapsClient interface {
	GeoResolver
	CandidateSource
	DetailSource
}

// GeoCache stores resolved coordinates by location term.
type GeoCache interface {
	Get(ctx context.Context, key string) (Coordinate, bool, error)
	Set(ctx context.Context, key string, coord Coordinate, ttl time.Duration) error
}

type service struct {
	cfg       Config
	maps      MapsClient
	cache     GeoCache
	insight   InsightStrategy
	romanizer Romanizer
	logger    *slog.Logger
	newRand   func() *rand.Rand
}

// NewService wires up the recommendation domain. maps may be nil when no
// credentials are configured; every request then fails with config_missing.
// chat may be nil, in which case only the keyword summarizer is used.
func NewService(cfg Config, maps MapsClient, cache GeoCache, chat ChatClient, counter TokenCounter, logger *slog.Logger) Service {
	cfg = cfg.withDefaults()
	logger = applog.Component(logger, "gourmet.service")

	chain := InsightChain{}
	var romanizer Romanizer
	if chat != nil {
		if cfg.InsightStrategy == InsightStrategyLLM {
			chain = append(chain, &LLMInsight{
				Client:      chat,
				Counter:     counter,
				Model:       cfg.Model,
				Temperature: cfg.Temperature,
				Prompt:      cfg.InsightPrompt,
				TokenBudget: cfg.PromptTokenBudget,
				Logger:      logger,
			})
		}
		if cfg.RomanizeNames {
			romanizer = &LLMRomanizer{Client: chat, Model: cfg.Model, Temperature: 0, Logger: logger}
		}
	}
	chain = append(chain, KeywordInsight{})

	return &service{
		cfg:       cfg,
		maps:      maps,
		cache:     cache,
		insight:   chain,
		romanizer: romanizer,
		logger:    logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

func (s *service) Recommend(ctx context.Context, req Request) (Response, error) {
	if s.maps == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeConfigMissing, "maps api key is not configured; set MAPS_API_KEY (or maps.apiKey in the config file) and restart the service", nil)
	}

	q, err := ParseQuery(req.Text)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", err)
	}
	started := time.Now()

	origin, found, err := s.resolveLocation(ctx, q.Location)
	if err != nil {
		s.logger.Warn("geocode failed", "location", q.Location, "error", apperrors.Wrap(apperrors.CodeGeoError, "geocode request failed", err))
		return Response{Reply: MsgUpstreamFailure}, nil
	}
	if !found {
		s.logger.Info("location not found", "location", q.Location)
		return Response{Reply: MsgLocationNotFound}, nil
	}

	candidates, err := s.searchCandidates(ctx, origin, q)
	if err != nil {
		s.logger.Warn("nearby search failed", "location", q.Location, "category", q.Category, "error", apperrors.Wrap(apperrors.CodePlacesError, "nearby search failed", err))
		return Response{Reply: MsgUpstreamFailure}, nil
	}
	if len(candidates) == 0 {
		s.logger.Info("no candidates found", "location", q.Location, "category", q.Category)
		return Response{Reply: MsgNoResults(q)}, nil
	}

	shortlist := Select(candidates, SelectOptions{
		ShortlistSize:    s.cfg.ShortlistSize,
		PoolSize:         s.cfg.PoolSize,
		QualityThreshold: s.cfg.QualityThreshold,
	}, s.newRand())

	usage := &metrics.UsageRecorder{}
	entries := s.enrich(ctx, origin, q, shortlist, usage)
	reply := RenderReply(q, entries, s.cfg.ReviewCountThreshold)

	tokens, llmCalls := usage.Snapshot()
	s.logger.Info("recommendation built",
		"location", q.Location,
		"category", q.Category,
		"candidates", len(candidates),
		"shortlist", len(shortlist),
		"llm_calls", llmCalls,
		"total_tokens", tokens.TotalTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return Response{Reply: reply}, nil
}

func (s *service) resolveLocation(ctx context.Context, location string) (Coordinate, bool, error) {
	key := geoCacheKey(location)
	if s.cache != nil {
		coord, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("geo cache lookup failed", "key", key, "error", err)
		} else if ok {
			return coord, true, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	coord, found, err := s.maps.Geocode(callCtx, GeocodeAddress(location))
	if err != nil || !found {
		return Coordinate{}, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, coord, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("geo cache store failed", "key", key, "error", err)
		}
	}
	return coord, true, nil
}

func (s *service) searchCandidates(ctx context.Context, origin Coordinate, q Query) ([]Candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.maps.Nearby(callCtx, NearbyQuery{
		Origin:       origin,
		RadiusMeters: s.cfg.SearchRadiusMeters,
		Keyword:      q.Category,
	})
}

// enrich fans out per-venue detail, insight and romanization work. Results are
// stored by index, so completion order does not matter, and one venue's
// failure never affects another.
func (s *service) enrich(ctx context.Context, origin Coordinate, q Query, shortlist Shortlist, usage *metrics.UsageRecorder) []EnrichedEntry {
	entries := make([]EnrichedEntry, len(shortlist))
	var g errgroup.Group
	g.SetLimit(s.cfg.EnrichConcurrency)
	for i, candidate := range shortlist {
		g.Go(func() error {
			entries[i] = s.enrichOne(ctx, origin, q, candidate, usage)
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

func (s *service) enrichOne(ctx context.Context, origin Coordinate, q Query, c Candidate, usage *metrics.UsageRecorder) EnrichedEntry {
	reviews := s.fetchReviews(ctx, c)

	insightCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	insight := s.insight.Insight(insightCtx, InsightInput{
		Name:     c.Name,
		Location: q.Location,
		Category: q.Category,
		Reviews:  reviews,
		Usage:    usage,
	})
	cancel()
	if insight == "" {
		insight = FallbackInsight
	}

	var romanized string
	if s.romanizer != nil {
		romanCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		romanized = s.romanizer.Romanize(romanCtx, c.Name, usage)
		cancel()
	}

	return EnrichedEntry{
		Candidate: c,
		Romanized: romanized,
		Insight:   insight,
		Access:    AccessText(origin, c.Location, q.Location, s.cfg.WalkSpeedMetersPerMinute, s.cfg.MaxWalkMinutes),
		MapURL:    MapURL(c, q.Location),
	}
}

// fetchReviews treats every failure as "no detail available".
func (s *service) fetchReviews(ctx context.Context, c Candidate) []string {
	if strings.TrimSpace(c.ID) == "" {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	reviews, err := s.maps.Reviews(callCtx, c.ID, s.cfg.ReviewCap)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("review fetch timed out", "place_id", c.ID)
		} else {
			s.logger.Warn("review fetch failed", "place_id", c.ID, "error", err)
		}
		return nil
	}
	return capReviews(reviews, s.cfg.ReviewCap)
}

func capReviews(reviews []string, limit int) []string {
	out := make([]string, 0, min(len(reviews), limit))
	for _, review := range reviews {
		if len(out) >= limit {
			break
		}
		if clean := strings.TrimSpace(review); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func geoCacheKey(location string) string {
	return strings.ToLower(strings.Join(strings.Fields(location), " "))
}
