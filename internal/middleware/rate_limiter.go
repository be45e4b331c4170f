package middleware

import (
	"net/http"
	"sync"
	"time"

	"hexagono/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// windowLimiter is one per-IP counter table.
type windowLimiter struct {
	name    string
	limit   int
	window  time.Duration
	message string

	mu      sync.Mutex
	entries map[string]*rateEntry
	now     func() time.Time
}

var (
	limiters   []*windowLimiter
	limitersMu sync.Mutex
)

func newWindowLimiter(name string, limit int, window time.Duration, message string) *windowLimiter {
	l := &windowLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		message: message,
		entries: make(map[string]*rateEntry),
		now:     time.Now,
	}
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	return l
}

func (l *windowLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		l.mu.Lock()
		entry, exists := l.entries[ip]
		if !exists {
			entry = &rateEntry{}
			l.entries[ip] = entry
		}
		l.mu.Unlock()

		entry.mu.Lock()
		now := l.now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(l.window)
		}
		entry.count++
		over := entry.count > l.limit
		windowEnd := entry.windowEnd
		entry.mu.Unlock()

		if over {
			log.Warn().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("limiter", l.name).
				Str("ip", ip).
				Msg("rate limit exceeded")
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// purge drops expired entries and returns how many were removed.
func (l *windowLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, entry := range l.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	return purged
}

// RateLimiter returns a general-purpose per-IP limiter: limit requests per window.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window,
		"Demasiadas solicitudes. Intente nuevamente en un momento.").handler()
}

// SubmitRateLimiter caps quote submissions per IP per hour.
func SubmitRateLimiter(perHour int) gin.HandlerFunc {
	if perHour < 1 {
		perHour = 10
	}
	return newWindowLimiter("submit", perHour, time.Hour,
		"Demasiadas cotizaciones enviadas. Intente nuevamente mas tarde.").handler()
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired entries from every limiter so IPs that never
// return do not accumulate.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		limitersMu.Lock()
		snapshot := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		for _, l := range snapshot {
			if n := l.purge(now); n > 0 {
				log.Debug().Str("limiter", l.name).Int("entries_purged", n).Msg("rate limiter map purged")
			}
		}
	}
}
