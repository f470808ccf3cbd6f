package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RPS                float64
	Burst              int
	TrustXForwardedFor bool
}

type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[key]
	if !ok {
		lim = rate.NewLimiter(c.rps, c.burst)
		c.limiters[key] = lim
	}
	return lim
}

// RateLimit applies a per-client token bucket in front of the booking API.
// The key is the first X-Forwarded-For entry when trusted, otherwise the
// remote address.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RPS <= 0 {
		cfg.RPS = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS) * 2
	}
	store := &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := clientKey(c.Request(), cfg.TrustXForwardedFor)
			if !store.get(key).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					dto.ErrorResponse{Error: "rate_limited", Message: "too many requests, slow down"})
			}
			return next(c)
		}
	}
}

func clientKey(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
