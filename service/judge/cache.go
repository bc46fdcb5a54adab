package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"deadlock/service/language"
	"deadlock/service/problem"
	"deadlock/service/verdict"

	"github.com/go-redis/redis/v9"
)

// Cache stores verdicts of runs already judged.
type Cache interface {
	Get(ctx context.Context, key string) (*verdict.Result, bool, error)
	Set(ctx context.Context, key string, res *verdict.Result) error
}

// cacheKey digests everything a verdict depends on. The harness embeds the code, the
// entry point and the declared parameters.
func cacheKey(lang language.Language, source string, tc *problem.TestCase) string {
	h := sha256.New()
	for _, part := range []string{lang.String(), source, tc.Input, tc.Output} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RedisCache keeps verdicts in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisKeyPrefix namespaces the verdict keys.
const RedisKeyPrefix = "deadlock:verdict:"

// NewRedisCache creates a cache whose entries expire after ttl. Zero keeps them forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*verdict.Result, bool, error) {
	data, err := c.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var res verdict.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, err
	}
	return &res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res *verdict.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, RedisKeyPrefix+key, data, c.ttl).Err()
}
