package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRateLimiter_HourlyCap(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	current := base
	limiter.SetNow(func() time.Time { return current })

	for i := 0; i < HourlyMessageCap; i++ {
		current = current.Add(time.Second)
		counts, err := limiter.Record(context.Background(), "sender-1")
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if counts.HourlyExceeded() {
			t.Fatalf("cap tripped early at message %d", i+1)
		}
	}

	current = current.Add(time.Second)
	counts, err := limiter.Record(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !counts.HourlyExceeded() {
		t.Fatalf("expected hourly cap after %d messages, got %d", HourlyMessageCap+1, counts.Hourly)
	}

	// An hour later the window has rolled over.
	current = current.Add(time.Hour + time.Minute)
	counts, err = limiter.Record(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if counts.HourlyExceeded() {
		t.Fatalf("window should have rolled over, got hourly %d", counts.Hourly)
	}
	if counts.Daily != HourlyMessageCap+2 {
		t.Fatalf("daily count should keep all of today, got %d", counts.Daily)
	}
}

func TestMemoryRateLimiter_PrunesBeyondDay(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	current := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter.SetNow(func() time.Time { return current })

	if _, err := limiter.Record(context.Background(), "sender-1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	current = current.Add(25 * time.Hour)
	counts, err := limiter.Record(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if counts.Daily != 1 {
		t.Fatalf("yesterday's entry should be pruned, got daily %d", counts.Daily)
	}
}

func TestMemoryRateLimiter_PerSenderIsolation(t *testing.T) {
	limiter := NewMemoryRateLimiter()

	for i := 0; i < 5; i++ {
		if _, err := limiter.Record(context.Background(), "busy"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	counts, err := limiter.Record(context.Background(), "quiet")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if counts.Hourly != 1 || counts.Daily != 1 {
		t.Fatalf("expected fresh counts for second sender, got %+v", counts)
	}
}

func TestRedisRateLimiter_MatchesMemoryBehavior(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisRateLimiter(client)

	for i := 0; i < HourlyMessageCap; i++ {
		counts, err := limiter.Record(context.Background(), "sender-1")
		if err != nil {
			t.Fatalf("record %d: %v", i+1, err)
		}
		if counts.HourlyExceeded() {
			t.Fatalf("cap tripped early at message %d", i+1)
		}
	}

	counts, err := limiter.Record(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !counts.HourlyExceeded() {
		t.Fatalf("expected hourly cap, got %d", counts.Hourly)
	}

	// Other senders are unaffected.
	counts, err = limiter.Record(context.Background(), "sender-2")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if counts.Hourly != 1 {
		t.Fatalf("expected isolated counts, got %d", counts.Hourly)
	}
}

func TestRedisRateLimiter_CountsSendsOnSameClockTick(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisRateLimiter(client)
	frozen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter.SetNow(func() time.Time { return frozen })

	for i := 1; i <= 5; i++ {
		counts, err := limiter.Record(context.Background(), "sender-1")
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if counts.Hourly != i {
			t.Fatalf("record %d: expected hourly count %d, got %d", i, i, counts.Hourly)
		}
	}
}
