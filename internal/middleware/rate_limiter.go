package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// fixedWindow counts requests per client in fixed windows. Each RateLimiter
// call owns one, so separate engines never share counters.
type fixedWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*windowEntry
	nextPurge time.Time
}

type windowEntry struct {
	count int
	ends  time.Time
}

// allow records one request from key and reports whether it fits the window,
// plus when the window ends.
func (w *fixedWindow) allow(key string) (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.After(w.nextPurge) {
		w.purge(now)
	}

	e, ok := w.entries[key]
	if !ok || now.After(e.ends) {
		e = &windowEntry{ends: now.Add(w.window)}
		w.entries[key] = e
	}
	e.count++
	return e.count <= w.limit, e.ends
}

// purge drops expired clients so addresses that never return do not pile up.
func (w *fixedWindow) purge(now time.Time) {
	purged := 0
	for key, e := range w.entries {
		if now.After(e.ends) {
			delete(w.entries, key)
			purged++
		}
	}
	w.nextPurge = now.Add(5 * w.window)
	if purged > 0 {
		log.Debug().Int("entries_purged", purged).Msg("rate limiter purged")
	}
}

// RateLimiter allows limit requests per window for each client IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return rateLimiter(limit, window, time.Now)
}

func rateLimiter(limit int, window time.Duration, now func() time.Time) gin.HandlerFunc {
	w := &fixedWindow{limit: limit, window: window, now: now, entries: make(map[string]*windowEntry)}
	return func(c *gin.Context) {
		ok, ends := w.allow(c.ClientIP())
		if !ok {
			retry := int(ends.Sub(w.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
