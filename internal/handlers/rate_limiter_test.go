package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atacadex/api/internal/platform/auth"
)

func TestSimpleRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(2, time.Minute, func() time.Time { return now })

	if !limiter.Allow("user-1") || !limiter.Allow("user-1") {
		t.Fatalf("first two requests must pass")
	}
	if limiter.Allow("user-1") {
		t.Fatalf("third request within window must be rejected")
	}
	if !limiter.Allow("user-2") {
		t.Fatalf("independent keys must not share a bucket")
	}

	now = now.Add(61 * time.Second)
	if !limiter.Allow("user-1") {
		t.Fatalf("window expiry must reset the bucket")
	}
}

func TestRateLimitMiddlewareKeysOnIdentity(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(1, time.Minute, func() time.Time { return now })

	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(uid string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		if uid != "" {
			req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid}))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := request("user-1"); code != http.StatusNoContent {
		t.Fatalf("first request must pass, got %d", code)
	}
	if code := request("user-1"); code != http.StatusTooManyRequests {
		t.Fatalf("second request must be limited, got %d", code)
	}
	if code := request("user-2"); code != http.StatusNoContent {
		t.Fatalf("other identities must not be limited, got %d", code)
	}
}

func TestRateLimitMiddlewareNilLimiterPassesThrough(t *testing.T) {
	handler := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
}
