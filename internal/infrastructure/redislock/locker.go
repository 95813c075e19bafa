// Package redislock provides a keyed mutual-exclusion lock shared by every API instance.
package redislock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyPrefix         = "settlement:lock:"
	defaultTTL        = 60 * time.Second
	defaultRetryDelay = 50 * time.Millisecond
)

// release deletes the key only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var c *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		c = redis.NewClient(opt)
	} else {
		c = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// Locker takes SET NX PX locks. The TTL bounds how long a crashed holder blocks others.
type Locker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewLocker(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
		logger:     logger.With().Str("component", "redislock").Logger(),
	}
}

// Lock blocks until key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// The caller's context may already be cancelled.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := release.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
					l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
				}
			}, nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
