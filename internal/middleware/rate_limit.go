package middleware

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiterInterface определяет интерфейс для ограничителя запросов
type RateLimiterInterface interface {
	Allow(userID int64) bool
	Cleanup()
}

// RateLimiter скользящее окно запросов на пользователя
type RateLimiter struct {
	requests map[int64][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		logger:   logger,
	}
}

// Allow проверяет, разрешен ли запрос
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.validSince(rl.requests[userID], now.Add(-rl.window))

	if len(valid) >= rl.limit {
		rl.logger.Warn("Rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int("requests", len(valid)),
			zap.Int("limit", rl.limit))
		rl.requests[userID] = valid
		return false
	}

	rl.requests[userID] = append(valid, now)
	return true
}

// Cleanup очищает старые записи
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for userID, requests := range rl.requests {
		valid := rl.validSince(requests, windowStart)
		if len(valid) == 0 {
			delete(rl.requests, userID)
		} else {
			rl.requests[userID] = valid
		}
	}
}

func (rl *RateLimiter) validSince(requests []time.Time, windowStart time.Time) []time.Time {
	var valid []time.Time
	for _, t := range requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	return valid
}
