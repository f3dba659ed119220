package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttleIdle is how long an unused bucket is kept before sweep drops it.
const throttleIdle = 5 * time.Minute

// requestThrottle is a token bucket per caller. Callers are keyed by user ID
// once RequireUser has run, by client address otherwise.
type requestThrottle struct {
	mu       sync.Mutex
	now      func() time.Time
	perSec   rate.Limit
	burst    int
	limiters map[string]*throttleBucket
}

type throttleBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newRequestThrottle(perSecond float64, burst int, now func() time.Time) *requestThrottle {
	if burst < 1 {
		burst = 1
	}
	return &requestThrottle{
		now:      now,
		perSec:   rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*throttleBucket),
	}
}

func (t *requestThrottle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	b, ok := t.limiters[key]
	if !ok {
		b = &throttleBucket{lim: rate.NewLimiter(t.perSec, t.burst)}
		t.limiters[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

func (t *requestThrottle) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for k, b := range t.limiters {
		if now.Sub(b.lastSeen) > throttleIdle {
			delete(t.limiters, k)
		}
	}
}

// Throttle rejects callers that exceed the configured request rate with 429.
// It is a no-op unless WithRequestRateLimit was given.
func (a *API) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.throttle == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := "ip:" + clientIP(r, a.trustedProxies)
		if c, ok := callerFromContext(r.Context()); ok {
			key = "user:" + c.Identity.ID
		}
		if !a.throttle.allow(key) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "request rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
