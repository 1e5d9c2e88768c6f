package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewInMemoryRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("hit %d denied, want allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("hit over limit allowed, want denied")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	if !l.Allow("a") {
		t.Fatal("first hit for a denied")
	}
	if !l.Allow("b") {
		t.Error("first hit for b denied; keys must not share a window")
	}
}

func TestAllowWindowSlides(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 20*time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("first hit denied")
	}
	if l.Allow("k") {
		t.Fatal("second hit inside window allowed")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("hit after window expiry denied")
	}
}

func TestRateLimitKeysAuthenticatedTrafficByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewInMemoryRateLimiter(1, time.Minute)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set("user_id", uint(7))
	}, RateLimit(l), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := do("1.2.3.4:1000"); code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", code)
	}
	// Different address, same account: the user key must still trip.
	if code := do("5.6.7.8:1000"); code != http.StatusTooManyRequests {
		t.Errorf("second request from new address = %d, want 429", code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewInMemoryRateLimiter(1, time.Minute)
	r := gin.New()
	r.GET("/x", RateLimit(l), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if code := do("1.2.3.4:1000"); code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", code)
	}
	if code := do("1.2.3.4:1001"); code != http.StatusTooManyRequests {
		t.Errorf("repeat from same address = %d, want 429", code)
	}
	if code := do("5.6.7.8:1000"); code != http.StatusOK {
		t.Errorf("request from other address = %d, want 200", code)
	}
}
