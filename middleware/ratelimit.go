package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/config"
)

const (
	defaultRPS         = 5
	defaultBurst       = 10
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepPeriod = time.Minute
	retryAfterSeconds  = 1
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 维护令牌桶，超出配额返回 429。
// 闲置超过 limiterIdleTTL 的令牌桶会在后续请求中被顺带清理。
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	failer    Failer
}

// NewRateLimiter 根据配置创建限流器，非正值使用默认配额。
func NewRateLimiter(cfg config.RateLimitConfig, failer Failer) *RateLimiter {
	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		failer:   failer,
	}
}

// Middleware 返回 gin 中间件。
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			abort(c, l.failer, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// Allow 消耗 key 对应令牌桶中的一个令牌。
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= limiterSweepPeriod {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}
