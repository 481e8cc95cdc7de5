package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByBrandOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if key := KeyByBrandOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	c.Set(ctxKeyBrandID, "acme")
	if key := KeyByBrandOrIP()(c); key != "brand:acme" {
		t.Fatalf("expected brand-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercion_AndBucketReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByBrandOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.limiterFor("k1")
	if lim == nil {
		t.Fatalf("expected limiter")
	}
	if got := rl.limiterFor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByBrandOrIP())
	rl.ttl = time.Minute
	rl.sweepEvery = 2

	rl.mu.Lock()
	rl.buckets["old"] = &bucket{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.buckets["warm"] = &bucket{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now()}
	rl.lookups = 1
	rl.mu.Unlock()

	_ = rl.limiterFor("new")

	rl.mu.Lock()
	_, existsOld := rl.buckets["old"]
	_, existsWarm := rl.buckets["warm"]
	_, existsNew := rl.buckets["new"]
	lookups := rl.lookups
	rl.mu.Unlock()
	if existsOld || !existsWarm || !existsNew {
		t.Fatalf("old=%v warm=%v new=%v; want only old evicted", existsOld, existsWarm, existsNew)
	}
	if lookups != 0 {
		t.Fatalf("lookup counter not reset: %d", lookups)
	}
}

func TestIsRateBypass(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatalf("expected false by default")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("expected true when set")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("expected false for non-bool")
	}
}

func TestRateLimiter_Handler_PerBrandBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, KeyByBrandOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-1"); c.Next() })
	r.Use(Brand("default"))
	r.Use(rl.Handler())
	r.POST("/expand", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	do := func(brand string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/expand", nil)
		req.Header.Set(HeaderBrandID, brand)
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("acme"); w.Code != http.StatusOK {
		t.Fatalf("first acme request: %d", w.Code)
	}
	w := do("acme")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second acme request should be limited, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected JSON body: %v", body)
	}

	if w := do("globex"); w.Code != http.StatusOK {
		t.Fatalf("other brand should have its own bucket, got %d", w.Code)
	}
}

func TestRateLimiter_Handler_MethodsAndBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, KeyByBrandOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler(http.MethodPost))
	r.GET("/offers", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/offers", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offers", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET should not be limited, got %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("first POST: %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST should be limited, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/offers", nil)
	req.Header.Set("X-Replay", "1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay should bypass limiter, got %d", w.Code)
	}
}
