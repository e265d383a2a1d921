package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rate limit caps per sender.
const (
	HourlyMessageCap = 30
	DailyMessageCap  = 200
)

// RateCounts reports how many messages the sender has in each window,
// including the send being checked.
type RateCounts struct {
	Hourly int
	Daily  int
}

// HourlyExceeded reports whether the hourly cap is breached.
func (c RateCounts) HourlyExceeded() bool { return c.Hourly > HourlyMessageCap }

// DailyExceeded reports whether the daily cap is breached.
func (c RateCounts) DailyExceeded() bool { return c.Daily > DailyMessageCap }

// RateLimiter tracks per-sender send timestamps over a sliding window.
// Record always appends the timestamp, even when the caps are exceeded, so
// hammering the endpoint cannot reset the window.
type RateLimiter interface {
	Record(ctx context.Context, senderID string) (RateCounts, error)
}

// MemoryRateLimiter is a process-local sliding-log limiter. History is
// pruned to 24 hours on every check.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

// NewMemoryRateLimiter creates an in-memory rate limiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (l *MemoryRateLimiter) SetNow(now func() time.Time) {
	l.now = now
}

// Record appends the current timestamp to the sender's log and returns
// the windowed counts.
func (l *MemoryRateLimiter) Record(_ context.Context, senderID string) (RateCounts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	dayCutoff := now.Add(-24 * time.Hour)
	hourCutoff := now.Add(-time.Hour)

	pruned := l.history[senderID][:0]
	for _, ts := range l.history[senderID] {
		if ts.After(dayCutoff) {
			pruned = append(pruned, ts)
		}
	}
	pruned = append(pruned, now)
	l.history[senderID] = pruned

	counts := RateCounts{Daily: len(pruned)}
	for _, ts := range pruned {
		if ts.After(hourCutoff) {
			counts.Hourly++
		}
	}
	return counts, nil
}

// RedisRateLimiter is a sliding-window limiter backed by a Redis sorted
// set, for deployments running more than one API instance.
type RedisRateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (l *RedisRateLimiter) SetNow(now func() time.Time) {
	l.now = now
}

// Record appends the current timestamp to the sender's sorted set, prunes
// entries older than 24 hours, and returns the windowed counts.
func (l *RedisRateLimiter) Record(ctx context.Context, senderID string) (RateCounts, error) {
	now := l.now().UTC()
	key := "msgrate:" + senderID
	// Members must stay unique even when two sends share a clock tick,
	// otherwise ZAdd overwrites and the count falls behind.
	member := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())
	dayCutoff := now.Add(-24 * time.Hour).UnixNano()
	hourCutoff := now.Add(-time.Hour).UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", dayCutoff))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	dailyCmd := pipe.ZCard(ctx, key)
	hourlyCmd := pipe.ZCount(ctx, key, fmt.Sprintf("%d", hourCutoff), "+inf")
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateCounts{}, fmt.Errorf("rate limit check: %w", err)
	}

	return RateCounts{
		Hourly: int(hourlyCmd.Val()),
		Daily:  int(dailyCmd.Val()),
	}, nil
}

var (
	_ RateLimiter = (*MemoryRateLimiter)(nil)
	_ RateLimiter = (*RedisRateLimiter)(nil)
)
