package gourmet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/station-gourmet/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/station-gourmet/pkg/errors"
)

type stubMaps struct {
	mu           sync.Mutex
	geocodeCalls int
	lastAddress  string
	lastNearby   NearbyQuery
	reviewLimits []int

	geocode func(address string) (Coordinate, bool, error)
	nearby  func(q NearbyQuery) ([]Candidate, error)
	reviews func(ctx context.Context, placeID string, limit int) ([]string, error)
}

func (s *stubMaps) Geocode(_ context.Context, address string) (Coordinate, bool, error) {
	s.mu.Lock()
	s.geocodeCalls++
	s.lastAddress = address
	s.mu.Unlock()
	if s.geocode == nil {
		return shinjuku, true, nil
	}
	return s.geocode(address)
}

func (s *stubMaps) Nearby(_ context.Context, q NearbyQuery) ([]Candidate, error) {
	s.mu.Lock()
	s.lastNearby = q
	s.mu.Unlock()
	if s.nearby == nil {
		return nil, nil
	}
	return s.nearby(q)
}

func (s *stubMaps) Reviews(ctx context.Context, placeID string, limit int) ([]string, error) {
	s.mu.Lock()
	s.reviewLimits = append(s.reviewLimits, limit)
	s.mu.Unlock()
	if s.reviews == nil {
		return nil, nil
	}
	return s.reviews(ctx, placeID, limit)
}

type stubGeoCache struct {
	mu    sync.Mutex
	items map[string]Coordinate
}

func (c *stubGeoCache) Get(_ context.Context, key string) (Coordinate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coord, ok := c.items[key]
	return coord, ok, nil
}

func (c *stubGeoCache) Set(_ context.Context, key string, coord Coordinate, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]Coordinate{}
	}
	c.items[key] = coord
	return nil
}

func newTestService(t *testing.T, cfg Config, maps MapsClient, cache GeoCache, chat ChatClient) *service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(cfg, maps, cache, chat, wordCounter{}, logger).(*service)
	svc.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(42, 42)) }
	return svc
}

func ramenCandidates() []Candidate {
	near := offsetNorth(shinjuku, 400)
	return []Candidate{
		{ID: "p1", Name: "Fuunji", Rating: ptr(4.4), RatingCount: ptr(3200), Location: &near},
		{ID: "p2", Name: "Menya Kaijin", Rating: ptr(4.2), RatingCount: ptr(1800)},
		{ID: "p3", Name: "Ramen Nagi", Rating: ptr(3.9), RatingCount: ptr(7)},
	}
}

func TestServiceRecommendWhitespaceQuery(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) { return ramenCandidates(), nil },
		reviews: func(_ context.Context, placeID string, _ int) ([]string, error) {
			return []string{"Delicious rich broth.", "  ", "Friendly staff."}, nil
		},
	}
	cache := &stubGeoCache{}
	svc := newTestService(t, Config{}, maps, cache, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
	require.NoError(t, err)

	require.Equal(t, "Shinjuku Station, Japan", maps.lastAddress)
	require.Equal(t, "ramen", maps.lastNearby.Keyword)
	require.Equal(t, DefaultSearchRadiusMeters, maps.lastNearby.RadiusMeters)
	require.Equal(t, shinjuku, maps.lastNearby.Origin)

	require.True(t, strings.HasPrefix(resp.Reply, "Here are my ramen picks around Shinjuku!\n"))
	require.True(t, strings.HasSuffix(resp.Reply, replyClosing))
	for _, name := range []string{"Fuunji", "Menya Kaijin", "Ramen Nagi"} {
		require.Contains(t, resp.Reply, name)
	}
	require.Equal(t, 3, strings.Count(resp.Reply, "Guests often mention the flavors and the friendly service."))
	require.Contains(t, resp.Reply, "About 5 minutes on foot from Shinjuku")
	require.Contains(t, resp.Reply, "Near Shinjuku")
	require.Contains(t, resp.Reply, "query_place_id=p1")
	require.Equal(t, []int{DefaultReviewCap, DefaultReviewCap, DefaultReviewCap}, maps.reviewLimits)

	coord, ok, _ := cache.Get(context.Background(), "shinjuku")
	require.True(t, ok)
	require.Equal(t, shinjuku, coord)
}

func TestServiceRecommendCommaQuery(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) {
			return []Candidate{{ID: "s1", Name: "Uobei", Rating: ptr(4.0), RatingCount: ptr(900)}}, nil
		},
	}
	svc := newTestService(t, Config{}, maps, nil, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Shibuya, sushi"})
	require.NoError(t, err)
	require.Equal(t, "Shibuya Station, Japan", maps.lastAddress)
	require.Equal(t, "sushi", maps.lastNearby.Keyword)
	require.True(t, strings.HasPrefix(resp.Reply, "Here are my sushi picks around Shibuya!\n"))
	require.Contains(t, resp.Reply, "1. Uobei")
	require.Contains(t, resp.Reply, FallbackInsight)
}

func TestServiceRecommendLocationNotFound(t *testing.T) {
	maps := &stubMaps{
		geocode: func(string) (Coordinate, bool, error) { return Coordinate{}, false, nil },
		nearby: func(NearbyQuery) ([]Candidate, error) {
			t.Fatal("nearby search must not run without a location")
			return nil, nil
		},
	}
	cache := &stubGeoCache{}
	svc := newTestService(t, Config{}, maps, cache, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Atlantis ramen"})
	require.NoError(t, err)
	require.Equal(t, MsgLocationNotFound, resp.Reply)
	require.Empty(t, cache.items)
}

func TestServiceRecommendNoCandidates(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) { return []Candidate{}, nil },
	}
	svc := newTestService(t, Config{}, maps, nil, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Ikebukuro curry"})
	require.NoError(t, err)
	require.Equal(t, MsgNoResults(Query{Location: "Ikebukuro", Category: "curry"}), resp.Reply)
}

func TestServiceRecommendUpstreamFailures(t *testing.T) {
	t.Run("geocode", func(t *testing.T) {
		maps := &stubMaps{
			geocode: func(string) (Coordinate, bool, error) { return Coordinate{}, false, errors.New("dial tcp: refused") },
		}
		svc := newTestService(t, Config{}, maps, nil, nil)
		resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
		require.NoError(t, err)
		require.Equal(t, MsgUpstreamFailure, resp.Reply)
	})
	t.Run("nearby", func(t *testing.T) {
		maps := &stubMaps{
			nearby: func(NearbyQuery) ([]Candidate, error) { return nil, errors.New("status=500") },
		}
		svc := newTestService(t, Config{}, maps, nil, nil)
		resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
		require.NoError(t, err)
		require.Equal(t, MsgUpstreamFailure, resp.Reply)
	})
}

func TestServiceRecommendConfigMissing(t *testing.T) {
	svc := newTestService(t, Config{}, nil, nil, nil)

	_, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfigMissing))
	require.Contains(t, apperrors.MessageOf(err), "MAPS_API_KEY")
}

func TestServiceRecommendEmptyText(t *testing.T) {
	maps := &stubMaps{}
	svc := newTestService(t, Config{}, maps, nil, nil)

	_, err := svc.Recommend(context.Background(), Request{Text: " \t\n"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Zero(t, maps.geocodeCalls)
}

func TestServiceRecommendUsesGeoCache(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) { return ramenCandidates(), nil },
	}
	cached := Coordinate{Latitude: 35.658, Longitude: 139.7016}
	cache := &stubGeoCache{items: map[string]Coordinate{"shibuya": cached}}
	svc := newTestService(t, Config{}, maps, cache, nil)

	_, err := svc.Recommend(context.Background(), Request{Text: "SHIBUYA ramen"})
	require.NoError(t, err)
	require.Zero(t, maps.geocodeCalls)
	require.Equal(t, cached, maps.lastNearby.Origin)
}

func TestServiceRecommendGracefulDegradation(t *testing.T) {
	candidates := make([]Candidate, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, Candidate{ID: fmt.Sprintf("id%d", i), Name: fmt.Sprintf("Venue %d", i), Rating: ptr(4.5), RatingCount: ptr(100)})
	}
	maps := &stubMaps{
		nearby:  func(NearbyQuery) ([]Candidate, error) { return candidates, nil },
		reviews: func(context.Context, string, int) ([]string, error) { return nil, errors.New("status=503") },
	}
	chat := &stubChatClient{reply: func(chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatgpt.ChatCompletionResponse{}, errors.New("provider down")
	}}
	svc := newTestService(t, Config{RomanizeNames: true}, maps, nil, chat)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
	require.NoError(t, err)
	require.Equal(t, 5, strings.Count(resp.Reply, "   "+FallbackInsight+"\n"))
	require.Equal(t, 5, chat.callCount())
}

func TestServiceRecommendIsolatesVenueFailures(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) { return ramenCandidates(), nil },
		reviews: func(ctx context.Context, placeID string, _ int) ([]string, error) {
			switch placeID {
			case "p2":
				return nil, errors.New("status=503")
			case "p3":
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return []string{"Delicious broth."}, nil
		},
	}
	svc := newTestService(t, Config{CallTimeout: 50 * time.Millisecond, InsightStrategy: InsightStrategyKeywords}, maps, nil, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
	require.NoError(t, err)
	require.Contains(t, entryFor(t, resp.Reply, "Fuunji"), "   Guests often mention the flavors.\n")
	require.Contains(t, entryFor(t, resp.Reply, "Menya Kaijin"), "   "+FallbackInsight+"\n")
	require.Contains(t, entryFor(t, resp.Reply, "Ramen Nagi"), "   "+FallbackInsight)
	require.Equal(t, 1, strings.Count(resp.Reply, "Guests often mention the flavors."))
	require.Equal(t, 2, strings.Count(resp.Reply, FallbackInsight))
}

// entryFor returns the reply block that lists the named venue.
func entryFor(t *testing.T, reply, name string) string {
	t.Helper()
	for _, block := range strings.Split(reply, "\n\n") {
		if strings.Contains(block, ". "+name+"\n") {
			return block
		}
	}
	require.FailNow(t, "venue missing from reply", name)
	return ""
}

func TestServiceRecommendLLMInsightAndRomanization(t *testing.T) {
	maps := &stubMaps{
		nearby: func(NearbyQuery) ([]Candidate, error) {
			return []Candidate{{ID: "f1", Name: "風雲児", Rating: ptr(4.3), RatingCount: ptr(2500)}}, nil
		},
		reviews: func(context.Context, string, int) ([]string, error) { return []string{"Thick tsukemen noodles."}, nil },
	}
	chat := &stubChatClient{reply: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		if strings.Contains(req.Messages[0].Content, "romanization") {
			return chatResponse("Fuunji", 20), nil
		}
		return chatResponse("Famous for thick tsukemen noodles.", 90), nil
	}}
	svc := newTestService(t, Config{RomanizeNames: true, Model: "gpt-test"}, maps, nil, chat)

	resp, err := svc.Recommend(context.Background(), Request{Text: "新宿 ラーメン"})
	require.NoError(t, err)
	require.Equal(t, "新宿駅", maps.lastAddress)
	require.Contains(t, resp.Reply, "1. 風雲児 (Fuunji)\n")
	require.Contains(t, resp.Reply, "   Famous for thick tsukemen noodles.\n")
	require.Contains(t, resp.Reply, "   ★4.3 from 2000+ reviews\n")
	require.Equal(t, 2, chat.callCount())
	for _, req := range chat.requests {
		if strings.Contains(req.Messages[0].Content, "romanization") {
			require.NotNil(t, req.Temperature)
			require.Zero(t, *req.Temperature)
		}
	}
}

func TestServiceRecommendKeywordStrategySkipsProvider(t *testing.T) {
	maps := &stubMaps{
		nearby:  func(NearbyQuery) ([]Candidate, error) { return ramenCandidates(), nil },
		reviews: func(context.Context, string, int) ([]string, error) { return []string{"Long queue but worth it."}, nil },
	}
	chat := &stubChatClient{}
	svc := newTestService(t, Config{InsightStrategy: InsightStrategyKeywords}, maps, nil, chat)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Shinjuku ramen"})
	require.NoError(t, err)
	require.Zero(t, chat.callCount())
	require.Equal(t, 3, strings.Count(resp.Reply, "Guests often mention how popular it is, so expect a queue."))
}

func TestServiceRecommendBackfillsHighQualityTier(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Name: "Top A", Rating: ptr(4.6), RatingCount: ptr(300)},
		{ID: "b", Name: "Top B", Rating: ptr(4.1), RatingCount: ptr(80)},
		{ID: "c", Name: "Top C", Rating: ptr(4.0), RatingCount: ptr(20)},
	}
	for i := 0; i < 17; i++ {
		candidates = append(candidates, Candidate{ID: fmt.Sprintf("f%02d", i), Name: fmt.Sprintf("Fill %02d", i), Rating: ptr(3.0 + float64(i)/20), RatingCount: ptr(10)})
	}
	maps := &stubMaps{nearby: func(NearbyQuery) ([]Candidate, error) { return candidates, nil }}
	svc := newTestService(t, Config{}, maps, nil, nil)

	resp, err := svc.Recommend(context.Background(), Request{Text: "Ueno tonkatsu"})
	require.NoError(t, err)
	for _, name := range []string{"Top A", "Top B", "Top C"} {
		require.Contains(t, resp.Reply, name)
	}
	require.Equal(t, 2, strings.Count(resp.Reply, ". Fill "))
	require.NotContains(t, resp.Reply, "6. ")
}

func TestCapReviews(t *testing.T) {
	got := capReviews([]string{"a", " ", "b", "c", "d"}, 2)
	require.Equal(t, []string{"a", "b"}, got)
	require.Empty(t, capReviews(nil, 3))
}
