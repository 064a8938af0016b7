package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexcora-checkout-api/services/auth"
)

func TestGetConfigForEndpoint(t *testing.T) {
	rl := NewRateLimiter(nil)

	assert.Equal(t, 5, rl.getConfigForEndpoint("/api/send-otp").Requests)
	assert.Equal(t, 10*time.Minute, rl.getConfigForEndpoint("/api/checkout/otp/resend").Window)
	assert.Equal(t, 10, rl.getConfigForEndpoint("/api/checkout/otp/").Requests)
	assert.Equal(t, time.Hour, rl.getConfigForEndpoint("/api/trial-signup").Window)
	assert.Equal(t, 30, rl.getConfigForEndpoint("/api/checkout/callback/success").Requests)
	assert.Equal(t, 60, rl.getConfigForEndpoint("/api/pricing").Requests)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/pricing", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", getClientIP(r))

	r.Header.Set("CF-Connecting-IP", "5.5.5.5")
	assert.Equal(t, "5.5.5.5", getClientIP(r))

	r.Header.Set("X-Real-IP", "4.4.4.4")
	assert.Equal(t, "4.4.4.4", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", getClientIP(r))
}

func TestRateLimitFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	rl := NewRateLimiter(client)

	called := false
	h := rl.RateLimitMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-otp", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitWithRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping test - Redis not available: %v", err)
	}
	defer client.Close()

	rl := NewRateLimiter(client)
	rl.configs = map[string]RateLimitConfig{
		"/api/send-otp": {Requests: 2, Window: time.Minute, Message: "slow down"},
		"default":       defaultConfigs["default"],
	}
	h := rl.RateLimitMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodPost, "/api/send-otp", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	client.Del(ctx, rl.getRateLimitKey(r))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestCORS(t *testing.T) {
	h := CORS("https://lexcora.ae")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/checkout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://lexcora.ae", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pricing", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
}

func newTestAuth() *CheckoutAuth {
	return NewCheckoutAuth(
		auth.NewJWTService("secret", "lexcora-checkout", time.Minute),
		NewCookieStore(CookieOptions{Secret: "cookie-secret-cookie-secret-1234", MaxAge: 1800}),
	)
}

func TestCheckoutAuthCookieRoundTrip(t *testing.T) {
	a := newTestAuth()

	rec := httptest.NewRecorder()
	token, _, err := a.Attach(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/open", nil), "chk-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CheckoutCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	r.AddCookie(cookies[0])
	id, err := a.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "chk-1", id)

	r = httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	id, err = a.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "chk-1", id)
}

func TestRequireCheckout(t *testing.T) {
	a := newTestAuth()
	var seen string
	h := a.RequireCheckout()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CheckoutIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active checkout session")

	r := httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	r.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid checkout token")

	token, _, err := a.jwt.GenerateToken("chk-9")
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chk-9", seen)
}
