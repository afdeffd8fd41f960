package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces member keys.
const DefaultRedisPrefix = "espace-membre:member"

// Redis is a Store shared between processes.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// NewRedis returns a Store backed by rdb. Entries expire after ttl
// (DefaultTTL when not positive).
func NewRedis(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(username string) string {
	return r.prefix + ":" + username
}

func (r *Redis) Get(ctx context.Context, username string) (*client.Member, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}

	var member client.Member
	if err := json.Unmarshal(raw, &member); err != nil {
		return nil, false, fmt.Errorf("cache: decode member: %w", err)
	}
	return &member, true, nil
}

func (r *Redis) Set(ctx context.Context, username string, member *client.Member) error {
	if member == nil {
		return nil
	}
	raw, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("cache: encode member: %w", err)
	}
	return r.rdb.Set(ctx, r.key(username), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, username string) error {
	return r.rdb.Del(ctx, r.key(username)).Err()
}
