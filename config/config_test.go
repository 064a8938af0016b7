package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STRIPE_CHECKOUT_MODE", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("OTP_MAX_ATTEMPTS", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg := Load()

	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "redirect", cfg.Stripe.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Checkout.OTPTTL)
	assert.Equal(t, 5, cfg.Checkout.OTPMaxAttempts)
	assert.Equal(t, 2, cfg.Redis.WorkerConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STRIPE_CHECKOUT_MODE", "embedded")
	t.Setenv("STRIPE_PRICE_PROFESSIONAL_ANNUALLY", "price_pro_year")
	t.Setenv("CHECKOUT_REQUEST_TIMEOUT", "5s")
	t.Setenv("FRONTEND_URL", "https://lexcora.ae/")
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")

	cfg := Load()

	assert.Equal(t, "embedded", cfg.Stripe.Mode)
	assert.Equal(t, "price_pro_year", cfg.Stripe.PriceRefs["professional"].Annually)
	assert.Equal(t, 5*time.Second, cfg.Checkout.RequestTimeout)
	assert.Equal(t, "https://lexcora.ae", cfg.Server.FrontendURL)
	assert.Equal(t, 2, cfg.Redis.WorkerConcurrency)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("STRIPE_CHECKOUT_MODE", "popup")
	assert.Equal(t, "redirect", Load().Stripe.Mode)
}
