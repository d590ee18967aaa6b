// Package cache stores generated answers in Redis so repeated questions skip
// retrieval and the model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"

	"github.com/soundprediction/duocdien/pkg/utils"
)

// DefaultPrefix namespaces every key written by RedisAnswerCache.
const DefaultPrefix = "duocdien:answer:"

// RedisAnswerCache is a JSON value cache backed by Redis.
type RedisAnswerCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default DefaultPrefix
	TTL      time.Duration // Expiration for entries, 0 keeps them forever
}

// NewRedisAnswerCache creates a new cache client. It does not dial until first use.
func NewRedisAnswerCache(opts RedisOptions) *RedisAnswerCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &RedisAnswerCache{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Key derives a stable key from a mode and a question. Questions differing
// only in case, Unicode form or spacing share a key.
func Key(mode, question string) string {
	normalized := utils.NormalizeStringExact(norm.NFC.String(question))
	sum := sha256.Sum256([]byte(normalized))
	return mode + ":" + hex.EncodeToString(sum[:])
}

// Get decodes the value stored under key into v. It reports false on a miss.
func (c *RedisAnswerCache) Get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer cache: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode cached answer: %w", err)
	}
	return true, nil
}

// Set stores v under key with the configured TTL.
func (c *RedisAnswerCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write answer cache: %w", err)
	}
	return nil
}

// Delete removes key.
func (c *RedisAnswerCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Ping checks the connection.
func (c *RedisAnswerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisAnswerCache) Close() error {
	return c.client.Close()
}
