package ratelimiter

import (
	"testing"
	"time"

	"github.com/emisorlabs/emisor/internal/config"
)

func TestFixedWindowLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 2,
		TimeFrame:            time.Minute,
		Enabled:              true,
	}, nil)

	for i := 0; i < 2; i++ {
		if allowed, _ := rl.Allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	if allowed {
		t.Fatal("third request within the window should be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("unexpected retry-after: %v", retryAfter)
	}

	// A different client has its own window.
	if allowed, _ := rl.Allow("10.0.0.2"); !allowed {
		t.Error("other client should not share the window")
	}
}

func TestFixedWindowLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 1,
		TimeFrame:            time.Minute,
		Enabled:              false,
	}, nil)

	for i := 0; i < 10; i++ {
		if allowed, _ := rl.Allow("10.0.0.1"); !allowed {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}

func TestFixedWindowLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(config.RateLimiterConfig{
		RequestsPerTimeFrame: 1,
		TimeFrame:            time.Nanosecond,
		Enabled:              true,
	}, nil)

	rl.Allow("10.0.0.1")
	time.Sleep(time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.clients) != 0 {
		t.Errorf("expected expired counters to be dropped, got %d", len(rl.clients))
	}
}
