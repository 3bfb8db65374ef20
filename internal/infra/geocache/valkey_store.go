package geocache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
)

// ValkeyStore shares resolved coordinates between instances through a
// Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "geo"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (gourmet.Coordinate, bool, error) {
	if strings.TrimSpace(key) == "" {
		return gourmet.Coordinate{}, false, nil
	}
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return gourmet.Coordinate{}, false, nil
		}
		return gourmet.Coordinate{}, false, err
	}
	return decodeCoordinate(payload)
}

func (s *ValkeyStore) Set(ctx context.Context, key string, coord gourmet.Coordinate, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	payload, err := json.Marshal(coord)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.TrimSpace(key))
}

// decodeCoordinate treats a corrupt entry as a miss so the caller re-resolves it.
func decodeCoordinate(payload string) (gourmet.Coordinate, bool, error) {
	var coord gourmet.Coordinate
	if err := json.Unmarshal([]byte(payload), &coord); err != nil {
		return gourmet.Coordinate{}, false, nil
	}
	return coord, true, nil
}

var _ gourmet.GeoCache = (*ValkeyStore)(nil)
