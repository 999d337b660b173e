package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"classping/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.RecipientRateLimiter = (*RedisRecipientLimiter)(nil)

const keyPrefix = "classping:ratelimit:"

// RedisRecipientLimiter caps messages per delivery address with a sliding
// window kept in a Redis sorted set: one member per message, scored by its
// timestamp.
type RedisRecipientLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRedisClient opens a go-redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisRecipientLimiter allows at most max messages per address within window.
func NewRedisRecipientLimiter(client *redis.Client, max int, window time.Duration) *RedisRecipientLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &RedisRecipientLimiter{
		client: client,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether another message may go to recipient and, if so,
// records it.
func (r *RedisRecipientLimiter) Allow(ctx context.Context, recipient string) (bool, error) {
	key := keyPrefix + recipient
	now := r.now()
	windowStart := now.Add(-r.window)

	var countCmd *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		// Drop entries that slid out of the window, then count the rest.
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
		countCmd = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking recipient rate limit: %w", err)
	}

	if countCmd.Val() >= int64(r.max) {
		return false, nil
	}

	// Random suffix keeps concurrent members for the same instant distinct.
	randBytes := make([]byte, 4)
	_, _ = rand.Read(randBytes)
	member := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d:%s", now.UnixNano(), hex.EncodeToString(randBytes)),
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, member)
		pipe.Expire(ctx, key, r.window+time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("recording rate limit entry: %w", err)
	}

	return true, nil
}

// Close closes the Redis connection.
func (r *RedisRecipientLimiter) Close() error {
	return r.client.Close()
}
