package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Address  string
	Username string
	Password string
	DB       int
}

// Redis is a Store backed by Redis. Entries expire with the span's TTL.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to Redis. The connection is lazy; use Ping to check it.
func NewRedis(opts RedisOptions) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{
		Addr:        opts.Address,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 2 * time.Second,
	})}
}

// Ping checks the connection.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Redis) Close() error {
	return c.rdb.Close()
}

// Load reads the entry for key. Connection errors are logged and treated as misses.
func (c *Redis) Load(ctx context.Context, key Key, now time.Time) (*Entry, bool) {
	data, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key.String()).Msg("[cache] redis get failed")
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("[cache] corrupt redis entry")
		return nil, false
	}

	if !entry.Fresh(key, now) {
		return nil, false
	}
	return &entry, true
}

// Save stores entry with the span's TTL as expiry.
func (c *Redis) Save(ctx context.Context, key Key, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.rdb.Set(ctx, key.String(), data, key.Span.TTL()).Err(); err != nil {
		return fmt.Errorf("failed to add %s to redis: %w", key, err)
	}
	return nil
}
