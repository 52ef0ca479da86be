package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write key to redis")
		return
	}
}

func Get(ctx context.Context, key string) (string, bool) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func Del(ctx context.Context, key string) {
	if err := Rdb.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
	}
}

// SetJSON marshals value and stores it under key with the given TTL.
func SetJSON(ctx context.Context, key string, value any, expiration time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value for redis")
		return
	}
	Set(ctx, key, payload, expiration)
}

// GetUnmarshalledJSON reads key and decodes it into out; returns false on
// miss or decode failure.
func GetUnmarshalledJSON(ctx context.Context, key string, out any) bool {
	raw, err := Rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to decode cached json")
		return false
	}
	return true
}
