package check

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the set consulted by a RedisBlacklist when no key is given.
const DefaultRedisKey = "mailprobe:blacklist"

// SetMemberChecker is the part of a go-redis client a RedisBlacklist uses.
// *redis.Client, *redis.ClusterClient and *redis.Ring all satisfy it.
type SetMemberChecker interface {
	SIsMember(ctx context.Context, key string, member interface{}) *redis.BoolCmd
}

// RedisBlacklist looks domains up in a Redis set, so that a blacklist can be
// shared and updated by several processes (SADD mailprobe:blacklist spam.example).
type RedisBlacklist struct {
	client SetMemberChecker
	key    string
}

func NewRedisBlacklist(client SetMemberChecker, key string) *RedisBlacklist {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBlacklist{client: client, key: key}
}

// NewRedisBlacklistFromURL connects to the server named by a redis:// URL.
// The returned client should be closed by the caller when done.
func NewRedisBlacklistFromURL(rawURL, key string) (*RedisBlacklist, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis blacklist: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedisBlacklist(client, key), client, nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, domain string) (bool, error) {
	key := normalizeDomain(domain)
	if key == "" {
		return false, nil
	}
	ok, err := b.client.SIsMember(ctx, b.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis blacklist: SISMEMBER %s: %w", b.key, err)
	}
	return ok, nil
}
