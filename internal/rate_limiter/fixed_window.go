package ratelimiter

import (
	"sync"
	"time"

	"github.com/emisorlabs/emisor/internal/config"
	"go.uber.org/zap"
)

// FixedWindowRateLimiter counts requests per client within a fixed time
// frame. Counters reset when their window expires.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCounter
	limit   int
	window  time.Duration
	enabled bool
	logger  *zap.SugaredLogger
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*windowCounter),
		limit:   cfg.RequestsPerTimeFrame,
		window:  cfg.TimeFrame,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// Allow reports whether the client may proceed. When denied it also returns
// how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(clientKey string) (bool, time.Duration) {
	if !rl.enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	counter, exists := rl.clients[clientKey]
	if !exists || now.After(counter.windowEnd) {
		rl.clients[clientKey] = &windowCounter{count: 1, windowEnd: now.Add(rl.window)}
		return true, 0
	}

	if counter.count >= rl.limit {
		return false, time.Until(counter.windowEnd)
	}

	counter.count++
	return true, 0
}

// Cleanup drops expired counters. Called periodically so the map does not
// grow with one entry per client forever.
func (rl *FixedWindowRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, counter := range rl.clients {
		if now.After(counter.windowEnd) {
			delete(rl.clients, key)
		}
	}
}

// StartCleanupLoop runs Cleanup every window until stop is closed.
func (rl *FixedWindowRateLimiter) StartCleanupLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(rl.window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
