package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"medminion/pkg/response"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitMiddleware applies a token bucket per client IP. Idle buckets expire.
type RateLimitMiddleware struct {
	log      *logrus.Logger
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

func NewRateLimitMiddleware(log *logrus.Logger, rps float64, burst int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		log:      log,
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
	}
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	if m.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !m.limiter(ip).Allow() {
			m.log.WithField("ip", ip).Warn("Rate limit exceeded")
			response.TooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) limiter(ip string) *rate.Limiter {
	if cached, found := m.limiters.Get(ip); found {
		m.limiters.SetDefault(ip, cached)
		return cached.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(m.limit, m.burst)
	// a concurrent first request may have won; keep whichever got stored first
	if err := m.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		if cached, found := m.limiters.Get(ip); found {
			return cached.(*rate.Limiter)
		}
	}
	return limiter
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
