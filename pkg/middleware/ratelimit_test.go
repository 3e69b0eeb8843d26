package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/midtrans", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3, zap.NewNop())
	defer rl.Shutdown()
	h := newTestHandler(rl)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, zap.NewNop())
	defer rl.Shutdown()
	h := newTestHandler(rl)

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1234"))
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	defer rl.Shutdown()
	h := newTestHandler(rl)

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1234"))
}
