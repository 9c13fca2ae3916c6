// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dev-mohitbeniwal/echo-portal/db"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/metrics"
)

// localLimiters is the per-process token bucket used when redis is not
// configured or not answering.
type localLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLocalLimiters(limit int, per time.Duration) *localLimiters {
	return &localLimiters{
		limit:    rate.Every(per / time.Duration(limit)),
		burst:    limit,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localLimiters) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimiter allows at most limit requests per window for each client
// address within scope. The window is shared across instances through redis;
// client may be nil to limit in process only.
func RateLimiter(client redis.Cmdable, scope string, limit int, per time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 1
	}
	local := newLocalLimiters(limit, per)

	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		var allowed bool
		if client != nil {
			var err error
			allowed, err = db.RateLimit(c.Request.Context(), client, key, limit, per)
			if err != nil {
				logger.Warn("Rate limiting via redis failed, using local limiter", zap.Error(err), zap.String("key", key))
				allowed = local.allow(key)
			}
		} else {
			allowed = local.allow(key)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Duration", per.String())

		if !allowed {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", limit),
				zap.Duration("per", per))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
