package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"salesreports/internal/domain/reports"
	"salesreports/pkg/logger"
)

var _ reports.OptionIndex = (*RedisOptionIndex)(nil)

const optionKeyPrefix = "salesreports:options:"

// RedisClient is the subset of redis commands the index uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

const scanBatch = 100

// RedisOptionIndex shares option labels between instances through redis.
// Any redis failure falls through to the wrapped index.
type RedisOptionIndex struct {
	client RedisClient
	next   reports.OptionIndex
	ttl    time.Duration
	codec  *payloadCodec
}

// NewRedisOptionIndex wraps next with a redis-backed cache. Payloads larger
// than compressThreshold bytes are stored zstd-compressed.
func NewRedisOptionIndex(client RedisClient, next reports.OptionIndex, ttl time.Duration, compressThreshold int) (*RedisOptionIndex, error) {
	codec, err := newPayloadCodec(compressThreshold)
	if err != nil {
		return nil, err
	}
	return &RedisOptionIndex{client: client, next: next, ttl: ttl, codec: codec}, nil
}

func optionKey(localeCode string) string {
	return optionKeyPrefix + localeCode
}

// OptionsForLocale reads labels from redis, loading and storing them on miss.
func (r *RedisOptionIndex) OptionsForLocale(ctx context.Context, localeCode string) (reports.VariantOptions, error) {
	key := optionKey(localeCode)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		options, err := r.codec.Decode(data)
		if err == nil {
			return options, nil
		}
		logger.Warn(ctx, "corrupted option labels in redis", "key", key, "error", err)
		_ = r.client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn(ctx, "redis unavailable for option labels", "key", key, "error", err)
	}

	options, err := r.next.OptionsForLocale(ctx, localeCode)
	if err != nil {
		return nil, err
	}

	payload, err := r.codec.Encode(options)
	if err != nil {
		return options, nil
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		logger.Warn(ctx, "store option labels in redis", "key", key, "error", err)
	}
	return options, nil
}

// Invalidate deletes the labels of localeCode, or of every locale when it is empty.
func (r *RedisOptionIndex) Invalidate(ctx context.Context, localeCode string) error {
	if localeCode != "" {
		return r.client.Del(ctx, optionKey(localeCode)).Err()
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, optionKeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
