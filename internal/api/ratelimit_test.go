package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskpilot/taskpilot/internal/log"
)

func TestRateLimiterBurst(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(0, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request beyond burst allowed")
	}

	// A different IP has its own bucket.
	if !rl.allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(0, 2)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("exhausted bucket = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"direct", "192.0.2.1:5000", "", "", false, "192.0.2.1"},
		{"headers ignored without trust", "192.0.2.1:5000", "203.0.113.9", "", false, "192.0.2.1"},
		{"x-real-ip", "10.0.0.1:80", "203.0.113.9", "", true, "203.0.113.9"},
		{"x-forwarded-for first hop", "10.0.0.1:80", "", "203.0.113.7, 10.0.0.2", true, "203.0.113.7"},
		{"invalid header falls through", "10.0.0.1:80", "not-an-ip", "", true, "10.0.0.1"},
		{"ipv6 remote", "[2001:db8::1]:443", "", "", false, "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(1, 10)
	for i := 0; i < 50; i++ {
		rl.allow(fmt.Sprintf("10.1.0.%d", i))
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.visitors) != 50 {
		t.Errorf("visitors = %d, want 50", len(rl.visitors))
	}
}
