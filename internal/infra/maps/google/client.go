package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
)

const (
	defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultNearbyURL  = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	defaultDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Options configures the Google Maps Platform client.
type Options struct {
	APIKey     string
	GeocodeURL string
	NearbyURL  string
	DetailsURL string
	Language   string
	Region     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Geocoding, Nearby Search and Place Details web services.
type Client struct {
	apiKey     string
	geocodeURL string
	nearbyURL  string
	detailsURL string
	language   string
	region     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("maps api key cannot be empty")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		geocodeURL: orDefault(opts.GeocodeURL, defaultGeocodeURL),
		nearbyURL:  orDefault(opts.NearbyURL, defaultNearbyURL),
		detailsURL: orDefault(opts.DetailsURL, defaultDetailsURL),
		language:   strings.TrimSpace(opts.Language),
		region:     strings.TrimSpace(opts.Region),
		httpClient: httpClient,
	}, nil
}

// Geocode resolves an address to the first result's coordinate. Zero results,
// a result without geometry and an undecodable payload all report found=false.
func (c *Client) Geocode(ctx context.Context, address string) (gourmet.Coordinate, bool, error) {
	params := url.Values{}
	params.Set("address", address)
	if c.region != "" {
		params.Set("region", c.region)
	}

	body, err := c.get(ctx, c.geocodeURL, params)
	if err != nil {
		return gourmet.Coordinate{}, false, fmt.Errorf("geocode request: %w", err)
	}

	var raw geocodeResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return gourmet.Coordinate{}, false, nil
	}
	switch raw.Status {
	case statusOK:
	case statusZeroResults:
		return gourmet.Coordinate{}, false, nil
	default:
		return gourmet.Coordinate{}, false, statusError("geocode", raw.Status, raw.ErrorMessage)
	}
	if len(raw.Results) == 0 || raw.Results[0].Geometry == nil {
		return gourmet.Coordinate{}, false, nil
	}
	loc := raw.Results[0].Geometry.Location
	return gourmet.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}, true, nil
}

// Nearby lists restaurants around the origin matching the keyword.
func (c *Client) Nearby(ctx context.Context, q gourmet.NearbyQuery) ([]gourmet.Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", q.Origin.Latitude, q.Origin.Longitude))
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("type", "restaurant")
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		params.Set("keyword", kw)
	}

	body, err := c.get(ctx, c.nearbyURL, params)
	if err != nil {
		return nil, fmt.Errorf("nearby search request: %w", err)
	}

	var raw nearbyResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode nearby search response: %w", err)
	}
	switch raw.Status {
	case statusOK:
	case statusZeroResults:
		return []gourmet.Candidate{}, nil
	default:
		return nil, statusError("nearby search", raw.Status, raw.ErrorMessage)
	}
	return normalizePlaces(raw.Results), nil
}

// Reviews returns up to limit non-empty review texts for the place.
func (c *Client) Reviews(ctx context.Context, placeID string, limit int) ([]string, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "reviews")

	body, err := c.get(ctx, c.detailsURL, params)
	if err != nil {
		return nil, fmt.Errorf("place details request: %w", err)
	}

	var raw detailsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode place details response: %w", err)
	}
	if raw.Status != statusOK {
		return nil, statusError("place details", raw.Status, raw.ErrorMessage)
	}

	out := make([]string, 0, len(raw.Result.Reviews))
	for _, review := range raw.Result.Reviews {
		if limit > 0 && len(out) >= limit {
			break
		}
		if text := strings.TrimSpace(review.Text); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("maps api error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func statusError(op, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s failed: status=%s message=%s", op, status, message)
	}
	return fmt.Errorf("%s failed: status=%s", op, status)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string    `json:"formatted_address"`
	Geometry         *geometry `json:"geometry"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type nearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Rating           *float64  `json:"rating,omitempty"`
	UserRatingsTotal *int      `json:"user_ratings_total,omitempty"`
	Geometry         *geometry `json:"geometry,omitempty"`
	Vicinity         string    `json:"vicinity"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Reviews []struct {
			Text string `json:"text"`
		} `json:"reviews"`
	} `json:"result"`
}

func normalizePlaces(results []placeResult) []gourmet.Candidate {
	out := make([]gourmet.Candidate, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		if r.PlaceID != "" {
			if _, ok := seen[r.PlaceID]; ok {
				continue
			}
			seen[r.PlaceID] = struct{}{}
		}
		c := gourmet.Candidate{
			ID:          r.PlaceID,
			Name:        name,
			Rating:      r.Rating,
			RatingCount: r.UserRatingsTotal,
			Address:     strings.TrimSpace(r.Vicinity),
		}
		if r.Geometry != nil {
			c.Location = &gourmet.Coordinate{Latitude: r.Geometry.Location.Lat, Longitude: r.Geometry.Location.Lng}
		}
		out = append(out, c)
	}
	return out
}
