package geocache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
)

// MemoryStore keeps resolved coordinates in process memory.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore constructs a store whose entries expire after defaultTTL
// unless Set is given its own TTL. A non-positive defaultTTL never expires.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if defaultTTL > 0 && defaultTTL < cleanup {
		cleanup = defaultTTL
	}
	return &MemoryStore{items: gocache.New(defaultTTL, cleanup)}
}

// Get implements gourmet.GeoCache.
func (s *MemoryStore) Get(_ context.Context, key string) (gourmet.Coordinate, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return gourmet.Coordinate{}, false, nil
	}
	value, ok := s.items.Get(key)
	if !ok {
		return gourmet.Coordinate{}, false, nil
	}
	coord, ok := value.(gourmet.Coordinate)
	return coord, ok, nil
}

// Set implements gourmet.GeoCache. A zero ttl falls back to the store default.
func (s *MemoryStore) Set(_ context.Context, key string, coord gourmet.Coordinate, ttl time.Duration) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.items.Set(key, coord, ttl)
	return nil
}

// Len reports the number of cached entries, expired ones included until cleanup.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

var _ gourmet.GeoCache = (*MemoryStore)(nil)
