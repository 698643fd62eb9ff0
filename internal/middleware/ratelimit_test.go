package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*RateLimiter, *time.Time) {
	now := start
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.Allow("key", 5, time.Minute) {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other", 5, time.Minute) {
		t.Error("keys must not share a budget")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, now := newTestLimiter(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, time.Minute)
	}

	if rl.Allow("key", 3, time.Minute) {
		t.Error("should be blocked within window")
	}

	*now = now.Add(time.Minute + time.Second)

	if !rl.Allow("key", 3, time.Minute) {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, now := newTestLimiter(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	rl.Allow("expired", 5, time.Second)
	*now = now.Add(2 * time.Second)
	rl.Allow("active", 5, time.Minute)

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired window should have been cleaned up")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active window should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()

	handler := RateLimit(rl, RemoteIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First 2 requests should pass
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	// 3rd request should be rate limited
	req := httptest.NewRequest("POST", "/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Another route has its own budget.
	req = httptest.NewRequest("POST", "/auth/request-reset", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other route: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestClientIP(t *testing.T) {
	spoofed := map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}

	tests := []struct {
		name       string
		trustProxy bool
		headers    map[string]string
		remote     string
		want       string
	}{
		{"direct ignores cloudflare header", false, spoofed, "3.3.3.3:1", "3.3.3.3"},
		{"direct ignores forwarded chain", false, map[string]string{"X-Forwarded-For": "2.2.2.2, 10.0.0.1"}, "3.3.3.3:1", "3.3.3.3"},
		{"direct remote without port", false, nil, "3.3.3.3", "3.3.3.3"},
		{"proxy cloudflare", true, spoofed, "3.3.3.3:1", "1.1.1.1"},
		{"proxy takes last forwarded hop", true, map[string]string{"X-Forwarded-For": "6.6.6.6, 2.2.2.2"}, "3.3.3.3:1", "2.2.2.2"},
		{"proxy single hop", true, map[string]string{"X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "2.2.2.2"},
		{"proxy without headers", true, nil, "3.3.3.3:1234", "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(tt.trustProxy)(req); got != tt.want {
				t.Errorf("ClientIP(%v) = %q, want %q", tt.trustProxy, got, tt.want)
			}
		})
	}
}

func TestRateLimitMiddlewareIgnoresSpoofedHeaders(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, ClientIP(false), 3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("POST", "/auth/verify-otp", nil)
		req.RemoteAddr = "3.3.3.3:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 47 {
		t.Errorf("limited = %d, want 47", limited)
	}
}
