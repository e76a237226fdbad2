package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: SessionRouteGroup,
		Limiter:  limiter,
		Rules:    rules,
	}))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/v1/sessions/:id", ok)
	r.POST("/api/v1/sessions/:id/document", ok)
	r.POST("/api/v1/sessions/:id/analyze", ok)
	return r
}

func do(r http.Handler, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":1234"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitUploadStricterThanReads(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateLimitGroupDefault: {Rate: 5, Burst: 10},
		RateLimitGroupUpload:  {Rate: 1, Burst: 2},
	})

	for i := 0; i < 3; i++ {
		if resp := do(r, http.MethodGet, "/api/v1/sessions/s1", "10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("read %d expected 200, got %d", i+1, resp.Code)
		}
	}
	for i := 0; i < 2; i++ {
		if resp := do(r, http.MethodPost, "/api/v1/sessions/s1/document", "10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("upload %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := do(r, http.MethodPost, "/api/v1/sessions/s1/document", "10.0.0.1"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("upload 3 expected 429, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/api/v1/sessions/s1/document", "10.0.0.2"); resp.Code != http.StatusOK {
		t.Fatalf("other client expected 200, got %d", resp.Code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		RateLimitGroupAnalyze: {Rate: 1, Burst: 1},
	})

	if resp := do(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "10.0.0.1"); resp.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp.Code)
	}
	resp := do(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "10.0.0.1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", payload.Error.Code)
	}
	if payload.Error.Details["group"] != RateLimitGroupAnalyze {
		t.Fatalf("unexpected group: %v", payload.Error.Details["group"])
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first call allowed")
	}
	ok, wait := limiter.Allow("k", rule)
	if ok || wait != time.Second {
		t.Fatalf("expected 1s wait, got ok=%v wait=%s", ok, wait)
	}
	now = now.Add(time.Second)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected refill after 1s")
	}
}

func TestRateLimiterPrunesIdleBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	limiter.Allow("stale", rule)
	now = now.Add(bucketIdleAfter + time.Minute)
	for i := 1; i < pruneEvery; i++ {
		limiter.Allow("fresh", rule)
	}
	if limiter.Len() != 1 {
		t.Fatalf("expected stale bucket pruned, have %d", limiter.Len())
	}
}
