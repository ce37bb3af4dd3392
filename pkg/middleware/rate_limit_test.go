package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCallerRateLimiter_Reserve(t *testing.T) {
	limiter := NewCallerRateLimiter(60, time.Minute, 2, nil, testLogger())
	defer limiter.Stop()

	if !limiter.Allow("user:a") || !limiter.Allow("user:a") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	ok, retryAfter := limiter.Reserve("user:a")
	if ok {
		t.Fatal("expected third request to be limited")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Errorf("expected retry-after within one second, got %s", retryAfter)
	}

	if !limiter.Allow("user:b") {
		t.Error("callers must not share a bucket")
	}
}

func TestCallerRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewCallerRateLimiter(60, time.Minute, 1, nil, testLogger())
	defer limiter.Stop()

	limiter.Allow("user:a")
	limiter.evictIdle(time.Now().Add(limiter.idleTTL + time.Second))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.limiters) != 0 {
		t.Errorf("expected idle limiter to be evicted, have %d", len(limiter.limiters))
	}
}

func TestCallerRateLimit_Middleware(t *testing.T) {
	limiter := NewCallerRateLimiter(60, time.Minute, 1, nil, testLogger())
	defer limiter.Stop()
	handler := CallerRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	newRequest := func(user string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/search", nil)
		req.Header.Set(CallerIDHeader, user)
		return req
	}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newRequest("u1"))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newRequest("u1"))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if body := decodeErrorBody(t, second); body.Code != "TOO_MANY_REQUESTS" {
		t.Errorf("expected TOO_MANY_REQUESTS, got %s", body.Code)
	}

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, newRequest("u2"))
	if other.Code != http.StatusOK {
		t.Errorf("expected other caller to pass, got %d", other.Code)
	}
}

func TestDefaultCallerExtractor(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		remoteAddr string
		expected   string
	}{
		{"user header wins", "u-42", "10.0.0.1:5555", "user:u-42"},
		{"falls back to ip", "", "10.0.0.1:5555", "ip:10.0.0.1"},
		{"address without port", "", "10.0.0.2", "ip:10.0.0.2"},
		{"nothing to go on", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.userID != "" {
				req.Header.Set(CallerIDHeader, tt.userID)
			}
			if got := DefaultCallerExtractor(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
