// Package cache stores classification results keyed by image content and
// model version.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fearless-dhbw/img-classification/internal/model"
	"github.com/fearless-dhbw/img-classification/internal/service/decoder"
)

const keyPrefix = "classify:"

// Cache is a result cache. Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.Result, bool, error)
	Set(ctx context.Context, key string, results []model.Result) error
}

// Key derives a cache key from the payload and the model fingerprint, so a
// new model never serves results computed by an old one. A data URI prefix
// does not change the key.
func Key(payload, fingerprint string) string {
	h := md5.New()
	h.Write([]byte(decoder.StripDataURI(payload)))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]model.Result, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var results []model.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, err
	}
	return results, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, results []model.Result) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
