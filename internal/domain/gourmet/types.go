package gourmet

import "time"

// Request captures the payload accepted by the recommendation endpoint.
type Request struct {
	Text string `json:"text"`
}

// Response is serialized back to API consumers.
type Response struct {
	Reply string `json:"reply"`
}

// Query is the parsed form of the free text input.
type Query struct {
	Location string
	Category string
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Candidate is one raw venue returned by the places provider.
type Candidate struct {
	ID          string
	Name        string
	Rating      *float64
	RatingCount *int
	Location    *Coordinate
	Address     string
}

// HasRating reports whether the provider supplied a numeric rating.
func (c Candidate) HasRating() bool {
	return c.Rating != nil
}

func (c Candidate) rating() float64 {
	if c.Rating == nil {
		return 0
	}
	return *c.Rating
}

func (c Candidate) ratingCount() int {
	if c.RatingCount == nil {
		return 0
	}
	return *c.RatingCount
}

// Shortlist is the bounded selection presented to the user.
type Shortlist []Candidate

// EnrichedEntry is one rendered shortlist member.
type EnrichedEntry struct {
	Candidate Candidate
	Romanized string
	Insight   string
	Access    string
	MapURL    string
}

// NearbyQuery describes a venue search around a coordinate.
type NearbyQuery struct {
	Origin       Coordinate
	RadiusMeters int
	Keyword      string
}

// Config wires runtime knobs for the recommendation domain.
type Config struct {
	SearchRadiusMeters       int
	ShortlistSize            int
	PoolSize                 int
	QualityThreshold         float64
	WalkSpeedMetersPerMinute float64
	MaxWalkMinutes           int
	ReviewCountThreshold     int
	ReviewCap                int
	CallTimeout              time.Duration
	EnrichConcurrency        int
	InsightStrategy          string
	RomanizeNames            bool
	PromptTokenBudget        int
	Model                    string
	Temperature              float32
	InsightPrompt            string
	CacheTTL                 time.Duration
}

const (
	// InsightStrategyLLM tries the text generation provider before the keyword summarizer.
	InsightStrategyLLM = "llm"
	// InsightStrategyKeywords only uses the deterministic keyword summarizer.
	InsightStrategyKeywords = "keywords"
)

const (
	DefaultSearchRadiusMeters   = 1200
	DefaultShortlistSize        = 5
	DefaultPoolSize             = 12
	DefaultQualityThreshold     = 4.0
	DefaultWalkSpeed            = 80.0
	DefaultMaxWalkMinutes       = 15
	DefaultReviewCountThreshold = 10
	DefaultReviewCap            = 5
	MaxReviewCap                = 8
	DefaultCallTimeout          = 5 * time.Second
	DefaultEnrichConcurrency    = 5
	DefaultPromptTokenBudget    = 600
	DefaultCategory             = "restaurants"
)

// withDefaults fills zero values so a partially populated Config stays usable.
func (c Config) withDefaults() Config {
	if c.SearchRadiusMeters <= 0 {
		c.SearchRadiusMeters = DefaultSearchRadiusMeters
	}
	if c.ShortlistSize <= 0 {
		c.ShortlistSize = DefaultShortlistSize
	}
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = DefaultQualityThreshold
	}
	if c.WalkSpeedMetersPerMinute <= 0 {
		c.WalkSpeedMetersPerMinute = DefaultWalkSpeed
	}
	if c.MaxWalkMinutes <= 0 {
		c.MaxWalkMinutes = DefaultMaxWalkMinutes
	}
	if c.ReviewCountThreshold <= 0 {
		c.ReviewCountThreshold = DefaultReviewCountThreshold
	}
	if c.ReviewCap <= 0 {
		c.ReviewCap = DefaultReviewCap
	}
	if c.ReviewCap > MaxReviewCap {
		c.ReviewCap = MaxReviewCap
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.EnrichConcurrency <= 0 {
		c.EnrichConcurrency = DefaultEnrichConcurrency
	}
	if c.InsightStrategy == "" {
		c.InsightStrategy = InsightStrategyLLM
	}
	if c.PromptTokenBudget <= 0 {
		c.PromptTokenBudget = DefaultPromptTokenBudget
	}
	return c
}
