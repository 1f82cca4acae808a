package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/identity"
)

type tokenBucket struct {
	mu     sync.Mutex
	tokens int
	last   time.Time
	rate   int
	burst  int
}

func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.last).Seconds()
	if elapsed > 0 {
		refill := int(elapsed * float64(tb.rate))
		if refill > 0 {
			tb.tokens += refill
			if tb.tokens > tb.burst {
				tb.tokens = tb.burst
			}
			tb.last = now
		}
	}
}

func (tb *tokenBucket) take(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(now)
	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}

// full reports whether the bucket is back at burst, i.e. no different from a
// fresh one.
func (tb *tokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(now)
	return tb.tokens >= tb.burst
}

// sweepEvery bounds how often idle buckets are dropped.
const sweepEvery = time.Second

type limiter struct {
	rps int
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func newLimiter(rps int) *limiter {
	return &limiter{rps: rps, now: time.Now, buckets: map[string]*tokenBucket{}}
}

func (l *limiter) allow(tenant string) bool {
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= sweepEvery {
		for k, tb := range l.buckets {
			if tb.full(now) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	tb, ok := l.buckets[tenant]
	if !ok {
		tb = &tokenBucket{tokens: l.rps, last: now, rate: l.rps, burst: l.rps}
		l.buckets[tenant] = tb
	}
	l.mu.Unlock()
	return tb.take(now)
}

// RateLimit gives every tenant its own bucket of rps tokens per second. It
// must run after Auth; requests without an identity share one bucket.
// Buckets that have refilled are dropped, so the map only holds tenants
// seen within about a second.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(rps)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tenant string
			if who, ok := identity.FromContext(r.Context()); ok {
				tenant = who.TenantID
			}
			if !l.allow(tenant) {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
