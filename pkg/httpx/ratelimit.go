package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/renderauth/renderauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimit describes a token bucket: Requests refills spread over Window,
// with up to Burst tokens available at once.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Profiles by endpoint sensitivity.
var (
	// StrictLimit for credential endpoints, to slow brute forcing.
	StrictLimit = RateLimit{Requests: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit for authenticated operations.
	ModerateLimit = RateLimit{Requests: 20, Window: time.Minute, Burst: 20}

	// PublicLimit for public read-only endpoints.
	PublicLimit = RateLimit{Requests: 1000, Window: time.Minute, Burst: 1000}
)

// KeyFunc derives the value requests are bucketed by, e.g. client IP or
// authenticated subject. An empty key means the request is not limited.
type KeyFunc func(*http.Request) string

// ClientIPKey buckets by client IP, preferring proxy headers when present.
func ClientIPKey(r *http.Request) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if v := r.Header.Get(h); v != "" {
			// X-Forwarded-For may carry a chain; the first hop is the client.
			head, _, _ := strings.Cut(v, ",")
			return strings.TrimSpace(head)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SubjectKey buckets by the authenticated subject, or "" for anonymous
// requests.
func SubjectKey(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// JoinKeys combines key funcs, joining their non-empty results with sep.
func JoinKeys(sep string, fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// buckets holds one rate.Limiter per key and drops entries that have been
// idle longer than bucketIdleTTL.
type buckets struct {
	mu        sync.Mutex
	byKey     map[string]*bucket
	rate      rate.Limit
	burst     int
	nextSweep time.Time
}

func newBuckets(cfg RateLimit) *buckets {
	return &buckets{
		byKey:     make(map[string]*bucket),
		rate:      rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		nextSweep: time.Now().Add(bucketIdleTTL),
	}
}

func (b *buckets) allow(key string) (ok bool, retryAfter time.Duration) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, found := b.byKey[key]
	if !found {
		entry = &bucket{lim: rate.NewLimiter(b.rate, b.burst)}
		b.byKey[key] = entry
	}
	entry.lastSeen = now

	if now.After(b.nextSweep) {
		b.sweepLocked(now)
	}

	if entry.lim.Allow() {
		return true, 0
	}

	res := entry.lim.Reserve()
	retryAfter = res.Delay()
	res.Cancel()
	return false, retryAfter
}

func (b *buckets) sweepLocked(now time.Time) {
	for key, entry := range b.byKey {
		if now.Sub(entry.lastSeen) > bucketIdleTTL {
			delete(b.byKey, key)
		}
	}
	b.nextSweep = now.Add(bucketIdleTTL)
}

// Throttle limits requests grouped by key, answering 429 with a Retry-After
// header once a bucket is drained. Requests without a key pass through.
func Throttle(cfg RateLimit, key KeyFunc) Middleware {
	b := newBuckets(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, retryAfter := b.allow(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			secs := int(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))

			slogx.FromContext(r.Context()).Warn("request throttled",
				"key", k,
				"path", r.URL.Path,
				"retry_after", secs,
			)

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "slow_down",
				"error_description": "too many requests, retry later",
			})
		})
	}
}

// ThrottleByIP limits by client IP only.
func ThrottleByIP(cfg RateLimit) Middleware {
	return Throttle(cfg, ClientIPKey)
}

// ThrottleBySubject limits by authenticated subject, with the client IP
// folded in so anonymous traffic is still bucketed.
func ThrottleBySubject(cfg RateLimit) Middleware {
	return Throttle(cfg, JoinKeys(":", SubjectKey, ClientIPKey))
}
