// 文件路径: internal/security/ratelimiter.go
// 模块说明: 基于缓存计数的固定窗口限流，用于登录尝试。
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/cache"
)

// ErrRateLimited 表示超出限额。
var ErrRateLimited = errors.New("too many attempts / 尝试次数过多，请稍后再试")

// RateLimiter 控制重复行为（如登录尝试）。
type RateLimiter struct {
	store  cache.Store
	limit  int
	window time.Duration
}

// RateResult 描述 Allow 调用的结果。
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter 使用缓存存储构建限流器。
func NewRateLimiter(store cache.Store, limit int, window time.Duration) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter requires cache store / 限流器需要缓存存储")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive / limit 必须为正数")
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{store: store.Namespace("rate"), limit: limit, window: window}, nil
}

// Allow 记一次尝试并判断是否仍在限额内。
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	current, err := l.store.Increment(ctx, key, 1, l.window)
	if err != nil {
		return RateResult{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	ttl, ok := l.store.TTL(ctx, key)
	if !ok {
		ttl = l.window
	}
	remaining := l.limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:   current <= int64(l.limit),
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(ttl),
	}, nil
}

// Reset 清除指定 key 的计数。
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	l.store.Delete(ctx, key)
}
