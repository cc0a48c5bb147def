package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"query": {RatePerSecond: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("query")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"query": {RatePerSecond: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("query")(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.9")
	second := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	second.Header.Set("X-Real-IP", "10.0.0.2")

	for _, req := range []*http.Request{first, second} {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected request from %s to succeed, got %d", clientID(req), res.Code)
		}
	}
	if got := clientID(first); got != "10.0.0.1" {
		t.Fatalf("unexpected forwarded client id %q", got)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"query": {RatePerSecond: 1, Burst: 1},
	}, nil)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	handler := limiter.Middleware("query")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected one tracked visitor, got %d", len(limiter.visitors))
	}

	now = now.Add(10 * time.Minute)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected a fresh limiter after idle eviction, got %d", res.Code)
	}
}

func TestRateLimiterSweepsOncePerIdleInterval(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"query": {RatePerSecond: 100, Burst: 100},
	}, nil)
	start := time.Unix(1_700_000_000, 0)
	now := start
	limiter.clockNow = func() time.Time { return now }
	handler := limiter.Middleware("query")(okHandler())

	from := func(ip string) {
		req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
		req.Header.Set("X-Real-IP", ip)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	tracked := func(ip string) bool {
		_, ok := limiter.visitors["query|"+ip]
		return ok
	}

	from("10.0.0.1")
	now = start.Add(5 * time.Minute)
	from("10.0.0.2")
	if !tracked("10.0.0.1") {
		t.Fatalf("visitor seen within the idle TTL was evicted")
	}

	// 10.0.0.1 is idle now, but the next sweep is not due yet.
	now = start.Add(9 * time.Minute)
	from("10.0.0.2")
	if !tracked("10.0.0.1") {
		t.Fatalf("sweep ran before its interval elapsed")
	}

	now = start.Add(10*time.Minute + 2*time.Second)
	from("10.0.0.2")
	if tracked("10.0.0.1") {
		t.Fatalf("idle visitor survived a due sweep")
	}
	if !tracked("10.0.0.2") {
		t.Fatalf("active visitor evicted")
	}
}

func TestRateLimiterPassesUnknownRoutes(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	handler := limiter.Middleware("missing")(okHandler())
	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("unlimited route rejected request %d", i)
		}
	}
}
