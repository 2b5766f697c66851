package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Fixed-window per-IP counter. Coarse on purpose: the sending platform
// retries politely, and the read endpoints are operator-facing.
type requestRateLimiter struct {
	enabled bool
	limits  map[string]int

	mu       sync.Mutex
	window   int64
	counters map[string]int
}

func newRequestRateLimiter(cfg RateLimitPolicy) *requestRateLimiter {
	return &requestRateLimiter{
		enabled: cfg.Enabled,
		limits: map[string]int{
			"webhook": cfg.WebhookPerMinute,
			"read":    cfg.ReadPerMinute,
		},
		window:   currentMinuteWindow(),
		counters: make(map[string]int),
	}
}

func (l *requestRateLimiter) Allow(r *http.Request, action string) bool {
	if l == nil || !l.enabled {
		return true
	}
	limit := l.limits[strings.TrimSpace(action)]
	if limit <= 0 {
		return true
	}
	nowWindow := currentMinuteWindow()
	key := strings.TrimSpace(action) + "|" + requestRemoteIP(r)

	l.mu.Lock()
	defer l.mu.Unlock()
	if nowWindow != l.window {
		l.window = nowWindow
		l.counters = make(map[string]int)
	}
	l.counters[key]++
	return l.counters[key] <= limit
}

func currentMinuteWindow() int64 {
	return time.Now().UTC().Unix() / 60
}

func requestRemoteIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
