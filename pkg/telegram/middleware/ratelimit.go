package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	rateWindow  = 5 * time.Second
	maxRequests = 3
)

// RateLimiter ограничивает частоту запросов пользователя через Redis.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(userID int64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	key := fmt.Sprintf("rate:%d", userID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		// Redis недоступен — не блокируем пользователей.
		return true
	}
	if count == 1 {
		r.client.Expire(ctx, key, rateWindow)
	}
	return count <= maxRequests
}
