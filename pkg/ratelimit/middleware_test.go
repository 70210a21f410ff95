package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/tendant/simple-register/pkg/errors"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func post(h http.Handler, remoteAddr, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = remoteAddr
	if session != "" {
		req.Header.Set("X-Test-Session", session)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionFromHeader(r *http.Request) string {
	return r.Header.Get("X-Test-Session")
}

func TestMiddleware_PerIP(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerIPCapacity = 2
	cfg.PerIPRefillRate = 0
	m := NewMiddleware(cfg)
	defer m.Close()
	h := m.Handler(okHandler)

	assert.Equal(t, http.StatusOK, post(h, "10.0.0.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, post(h, "10.0.0.1:1235", "").Code)

	rec := post(h, "10.0.0.1:1236", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"type":"ip"`)

	assert.Equal(t, http.StatusOK, post(h, "10.0.0.2:1234", "").Code)
}

func TestMiddleware_PerSession(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerSessionCapacity = 1
	cfg.PerSessionRefillRate = 0

	var limited *apperrors.Error
	m := NewMiddleware(cfg,
		WithSessionKey(sessionFromHeader),
		WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, err *apperrors.Error) {
			limited = err
			w.WriteHeader(err.HTTPStatusCode())
		}),
	)
	defer m.Close()
	h := m.Handler(okHandler)

	rec := post(h, "10.0.0.1:1", "s1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit-Session"))

	assert.Equal(t, http.StatusTooManyRequests, post(h, "10.0.0.1:1", "s1").Code)
	if assert.NotNil(t, limited) {
		assert.Equal(t, apperrors.ErrCodeRateLimitExceeded, limited.Code)
		assert.Equal(t, "session", limited.Details["type"])
	}

	// another session from the same address is still allowed
	assert.Equal(t, http.StatusOK, post(h, "10.0.0.1:1", "s2").Code)
	// no session cookie yet: only the IP limit applies
	assert.Equal(t, http.StatusOK, post(h, "10.0.0.1:1", "").Code)

	assert.Contains(t, m.GetStats(), "session")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.8 "}, "10.0.0.1:80", "203.0.113.8"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:5555", "2001:db8::1"},
		{"no port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
