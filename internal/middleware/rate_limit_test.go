package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inboxx/inboxx/internal/api"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected within limit", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit was allowed")
	}

	// Other clients are tracked independently.
	if !rl.Allow("5.6.7.8") {
		t.Error("separate client rejected")
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	if got := rl.Remaining("1.2.3.4"); got != 3 {
		t.Errorf("Remaining = %d, want 3", got)
	}
	rl.Allow("1.2.3.4")
	if got := rl.Remaining("1.2.3.4"); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
	rl.Allow("1.2.3.4")
	rl.Allow("1.2.3.4")
	rl.Allow("1.2.3.4")
	if got := rl.Remaining("1.2.3.4"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request allowed within window")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Error("request rejected after window passed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware(api.NewResponder(nil, false))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}
	if got := first.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("X-RateLimit-Remaining = %q, want 1", got)
	}

	send()
	third := send()
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", third.Code)
	}
	if got := third.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
}

func TestClientIPHeaders(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.7"},
		{"real ip", "", "203.0.113.8", "10.0.0.2:80", "203.0.113.8"},
		{"remote addr", "", "", "10.0.0.2:80", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
