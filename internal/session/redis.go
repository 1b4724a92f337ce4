package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/taxifare/internal/models"
)

// HashClient is the subset of redis operations the store needs.
type HashClient interface {
	HSet(ctx context.Context, key string, values map[string]interface{}) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) (int64, error)
}

type redisAdapter struct{ c *redis.Client }

// NewRedisHashClient adapts a go-redis client to HashClient.
func NewRedisHashClient(c *redis.Client) HashClient { return &redisAdapter{c: c} }

func (r *redisAdapter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	return r.c.HSet(ctx, key, values).Err()
}

func (r *redisAdapter) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.c.HGetAll(ctx, key).Result()
}

func (r *redisAdapter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.c.Expire(ctx, key, ttl).Err()
}

func (r *redisAdapter) Del(ctx context.Context, key string) (int64, error) {
	return r.c.Del(ctx, key).Result()
}

const (
	fieldCreated    = "created"
	fieldPickupLat  = "pickup_lat"
	fieldPickupLon  = "pickup_lon"
	fieldDropoffLat = "dropoff_lat"
	fieldDropoffLon = "dropoff_lon"
)

// RedisStore keeps each session in a hash under prefix+id. Every access
// refreshes the key TTL, so idle sessions expire on the redis side.
type RedisStore struct {
	client HashClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client HashClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) Create(ctx context.Context) (string, error) {
	id := newID()
	k := r.key(id)
	if err := r.client.HSet(ctx, k, map[string]interface{}{fieldCreated: time.Now().UTC().Format(time.RFC3339)}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := r.client.Expire(ctx, k, r.ttl); err != nil {
		return "", fmt.Errorf("create session: expire: %w", err)
	}
	return id, nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (Coordinates, error) {
	k := r.key(id)
	m, err := r.client.HGetAll(ctx, k)
	if err != nil {
		return Coordinates{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if len(m) == 0 {
		return Coordinates{}, ErrNotFound
	}
	c, err := decodeCoordinates(m)
	if err != nil {
		return Coordinates{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if err := r.client.Expire(ctx, k, r.ttl); err != nil {
		return Coordinates{}, fmt.Errorf("load session %s: expire: %w", id, err)
	}
	return c, nil
}

// SetSide writes the two fields of one side in a single HSET. A hash without
// the created field means the session was gone before the write; the stray
// hash is removed and ErrNotFound returned.
func (r *RedisStore) SetSide(ctx context.Context, id string, role models.Role, c models.Coord) (Coordinates, error) {
	k := r.key(id)
	latField, lonField := sideFields(role)
	values := map[string]interface{}{latField: formatFloat(c.Lat), lonField: formatFloat(c.Lon)}
	if err := r.client.HSet(ctx, k, values); err != nil {
		return Coordinates{}, fmt.Errorf("set %s for session %s: %w", role, id, err)
	}
	m, err := r.client.HGetAll(ctx, k)
	if err != nil {
		return Coordinates{}, fmt.Errorf("set %s for session %s: %w", role, id, err)
	}
	if _, ok := m[fieldCreated]; !ok {
		if _, err := r.client.Del(ctx, k); err != nil {
			return Coordinates{}, fmt.Errorf("set %s for session %s: cleanup: %w", role, id, err)
		}
		return Coordinates{}, ErrNotFound
	}
	if err := r.client.Expire(ctx, k, r.ttl); err != nil {
		return Coordinates{}, fmt.Errorf("set %s for session %s: expire: %w", role, id, err)
	}
	out, err := decodeCoordinates(m)
	if err != nil {
		return Coordinates{}, fmt.Errorf("set %s for session %s: %w", role, id, err)
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func sideFields(role models.Role) (lat, lon string) {
	if role == models.RoleDropoff {
		return fieldDropoffLat, fieldDropoffLon
	}
	return fieldPickupLat, fieldPickupLon
}

func decodeCoordinates(m map[string]string) (Coordinates, error) {
	var c Coordinates
	var err error
	if c.Pickup, err = parsePair(m, fieldPickupLat, fieldPickupLon); err != nil {
		return Coordinates{}, err
	}
	if c.Dropoff, err = parsePair(m, fieldDropoffLat, fieldDropoffLon); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

func parsePair(m map[string]string, latField, lonField string) (*models.Coord, error) {
	latStr, okLat := m[latField]
	lonStr, okLon := m[lonField]
	if !okLat || !okLon {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", latField, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", lonField, err)
	}
	return &models.Coord{Lat: lat, Lon: lon}, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
