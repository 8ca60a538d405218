package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiter_Allow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiter(2, time.Minute, clock.Now)

	ok, _ := rl.Allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	require.True(t, ok)

	clock.Advance(15 * time.Second)
	ok, retry := rl.Allow("10.0.0.1")
	require.False(t, ok)
	require.Equal(t, 45*time.Second, retry)

	ok, _ = rl.Allow("10.0.0.2")
	require.True(t, ok, "buckets are per client")

	clock.Advance(45 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	require.True(t, ok)
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiter(1, time.Minute, clock.Now)

	rl.Allow("10.0.0.1")
	clock.Advance(2 * time.Hour)
	rl.cleanup()

	require.Empty(t, rl.clients)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	require.NotPanics(t, rl.Stop)
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiter(1, time.Minute, clock.Now)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	req.RemoteAddr = "192.0.2.1:4321"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
}
