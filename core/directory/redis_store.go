package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/infra/redisutil"
	"github.com/tablerail/tablerail/core/tenant"
)

const (
	userKeyPrefix    = "trl:user:"
	tenantKeyPrefix  = "trl:restaurant:"
	defaultOpTimeout = 2 * time.Second
)

// RedisStore reads the user/restaurant records the SaaS core maintains in
// Redis. The gateway never writes them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore dials Redis at the given URL and verifies connectivity.
func NewRedisStore(url string) (*RedisStore, error) {
	client, err := redisutil.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client (shared pools, tests).
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies connectivity, used by health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("directory unavailable")
	}
	return s.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// LookupUser returns the user record or auth.ErrUserNotFound.
func (s *RedisStore) LookupUser(ctx context.Context, id int64) (*tenant.UserRecord, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("directory unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultOpTimeout)
	defer cancel()

	data, err := s.client.Get(cctx, UserKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: user %d", auth.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	var record tenant.UserRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}
	if record.ID == 0 {
		record.ID = id
	}
	return &record, nil
}

// TenantExists reports whether a restaurant record is present.
func (s *RedisStore) TenantExists(ctx context.Context, id int64) (bool, error) {
	if s == nil || s.client == nil {
		return false, errors.New("directory unavailable")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultOpTimeout)
	defer cancel()

	n, err := s.client.Exists(cctx, TenantKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("restaurant %d exists: %w", id, err)
	}
	return n > 0, nil
}

// UserKey constructs the directory key for a user id.
func UserKey(id int64) string {
	return userKeyPrefix + strconv.FormatInt(id, 10)
}

// TenantKey constructs the directory key for a restaurant id.
func TenantKey(id int64) string {
	return tenantKeyPrefix + strconv.FormatInt(id, 10)
}
