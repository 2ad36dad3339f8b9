package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a small sliding-window limiter keyed by client IP and
// action. It protects the create/join endpoints from accidental
// hammering; answer submission gets a looser window since every team
// fires at once when a question opens.
type rateLimiter struct {
	mu      sync.Mutex
	history map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		history: make(map[string][]time.Time),
	}
}

type rateLimitRule struct {
	limit  int
	window time.Duration
}

var rateLimitRules = map[string]rateLimitRule{
	"create": {limit: 10, window: time.Minute},
	"join":   {limit: 20, window: time.Minute},
	"answer": {limit: 60, window: time.Minute},
}

func (l *rateLimiter) allow(key string, rule rateLimitRule, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-rule.window)
	recent := l.history[key][:0]
	for _, at := range l.history[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) >= rule.limit {
		l.history[key] = recent
		return false
	}
	l.history[key] = append(recent, now)
	return true
}

func (s *Server) enforceRateLimit(w http.ResponseWriter, r *http.Request, action string) bool {
	rule, ok := rateLimitRules[action]
	if !ok {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if s.limiter.allow(action+":"+host, rule, time.Now()) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, "too many requests")
	return false
}
