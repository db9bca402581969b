package client

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rentsnap/internal/logger"
)

// RedisCache shares the read cache between several client processes on one host.
type RedisCache struct {
	rdb       *redis.Client
	namespace string
}

func NewRedisCache(rdb *redis.Client, namespace string) *RedisCache {
	if namespace == "" {
		namespace = "rentsnap:cache:"
	}
	return &RedisCache{rdb: rdb, namespace: namespace}
}

func (r *RedisCache) key(k string) string {
	return r.namespace + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WarnContext(ctx, "redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.rdb.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		logger.WarnContext(ctx, "redis cache set failed", "key", key, "error", err)
	}
}

func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) {
	pattern := globEscape(r.key(prefix)) + "*"
	iter := r.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.WarnContext(ctx, "redis cache scan failed", "prefix", prefix, "error", err)
	}
	if len(keys) == 0 {
		return
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.WarnContext(ctx, "redis cache delete failed", "prefix", prefix, "error", err)
	}
}

func (r *RedisCache) Clear(ctx context.Context) {
	r.DeletePrefix(ctx, "")
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// globEscape quotes the characters SCAN MATCH treats as wildcards.
func globEscape(s string) string {
	return globReplacer.Replace(s)
}
