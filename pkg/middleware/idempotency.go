package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	// Begin returns the stored response for key if one is still fresh.
	// Otherwise it marks key as in flight, reporting false when another
	// request already holds it.
	Begin(key string) (*CachedResponse, bool)
	// Finish stores the response for key, or only releases it when response is nil.
	Finish(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	CreatedAt  time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	store    map[string]*CachedResponse
	inFlight map[string]struct{}
	ttl      time.Duration
	clock    clock.Clock
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration, clk clock.Clock) *InMemoryIdempotencyStore {
	if clk == nil {
		clk = clock.New()
	}
	store := &InMemoryIdempotencyStore{
		store:    make(map[string]*CachedResponse),
		inFlight: make(map[string]struct{}),
		ttl:      ttl,
		clock:    clk,
		stopCh:   make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Begin(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response := s.lookup(key); response != nil {
		return response, false
	}
	if _, busy := s.inFlight[key]; busy {
		return nil, false
	}
	s.inFlight[key] = struct{}{}
	return nil, true
}

// lookup must be called with mu held.
func (s *InMemoryIdempotencyStore) lookup(key string) *CachedResponse {
	response, exists := s.store[key]
	if !exists {
		return nil
	}
	if s.clock.Since(response.CreatedAt) > s.ttl {
		delete(s.store, key)
		return nil
	}
	return response
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, key)
	if response == nil {
		return
	}
	response.CreatedAt = s.clock.Now()
	s.store[key] = response
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := s.clock.Ticker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if s.clock.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a previous successful POST that
// carried the same key from the same caller on the same path.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = IdempotencyKeyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(headerName)
			if idempotencyKey == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			key := scopedIdempotencyKey(r, idempotencyKey)

			cached, started := store.Begin(key)
			if cached != nil {
				replayCachedResponse(w, cached)
				return
			}
			if !started {
				writeJSONError(w, http.StatusConflict, "CONFLICT", "A request with this Idempotency-Key is already in progress")
				return
			}

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			defer func() {
				if !shouldCacheResponse(capture.statusCode) {
					store.Finish(key, nil)
					return
				}
				store.Finish(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				})
			}()
			next.ServeHTTP(capture, r)
		})
	}
}

func scopedIdempotencyKey(r *http.Request, key string) string {
	return r.Header.Get(CallerIDHeader) + "|" + r.URL.Path + "|" + key
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func shouldCacheResponse(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
