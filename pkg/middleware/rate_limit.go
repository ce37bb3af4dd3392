package middleware

import (
	"keja/pkg/logger"
	"keja/pkg/metrics"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	CallerIDHeader = "X-User-ID"

	limiterCleanupInterval = 10 * time.Minute
)

type CallerExtractor func(r *http.Request) string

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CallerRateLimiter keeps one token bucket per caller.
type CallerRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*callerLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	extractor CallerExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewCallerRateLimiter allows requests per window for each caller, with the given burst.
func NewCallerRateLimiter(requests int, window time.Duration, burst int, extractor CallerExtractor, log *logger.Logger) *CallerRateLimiter {
	if extractor == nil {
		extractor = DefaultCallerExtractor
	}
	limiter := &CallerRateLimiter{
		limiters:  make(map[string]*callerLimiter),
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     burst,
		idleTTL:   max(window, limiterCleanupInterval),
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *CallerRateLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *CallerRateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for caller, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > rl.idleTTL {
			delete(rl.limiters, caller)
		}
	}
}

func (rl *CallerRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Reserve consumes a token for caller. When no token is available it returns
// false and the delay until the next one.
func (rl *CallerRateLimiter) Reserve(caller string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	entry, ok := rl.limiters[caller]
	if !ok {
		entry = &callerLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[caller] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *CallerRateLimiter) Allow(caller string) bool {
	ok, _ := rl.Reserve(caller)
	return ok
}

func CallerRateLimit(limiter *CallerRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := limiter.extractor(r)
			if caller == "" {
				next.ServeHTTP(w, r)
				return
			}

			if ok, retryAfter := limiter.Reserve(caller); !ok {
				metrics.RateLimited.Inc()
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"caller", caller,
					"path", r.URL.Path,
				)
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				writeJSONError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultCallerExtractor identifies the caller by X-User-ID, falling back to the client address.
func DefaultCallerExtractor(r *http.Request) string {
	if id := r.Header.Get(CallerIDHeader); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ""
	}
	return "ip:" + host
}
