package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lexcora-checkout-api/database"
	"lexcora-checkout-api/services/email"
)

type Config struct {
	Database database.DatabaseConfig
	Stripe   StripeConfig
	SMTP     email.SMTPConfig
	Server   ServerConfig
	Redis    RedisConfig
	Session  SessionConfig
	Checkout CheckoutConfig
	Captcha  CaptchaConfig
	NATS     NATSConfig
	Internal InternalConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Mode          string // "redirect" or "embedded"
	PriceRefs     map[string]PriceRefs
}

// PriceRefs are the Stripe price ids of one tier.
type PriceRefs struct {
	Monthly  string
	Annually string
}

type ServerConfig struct {
	Port          string
	PublicURL     string
	FrontendURL   string
	AllowedOrigin string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
	Secure bool
}

type CheckoutConfig struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	BypassCode     string
}

type CaptchaConfig struct {
	Secret    string
	VerifyURL string
}

type InternalConfig struct {
	Secret string
}

type NATSConfig struct {
	URL     string
	Subject string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Mode:          getEnvOrDefault("STRIPE_CHECKOUT_MODE", "redirect"),
			PriceRefs: map[string]PriceRefs{
				"starter": {
					Monthly:  os.Getenv("STRIPE_PRICE_STARTER_MONTHLY"),
					Annually: os.Getenv("STRIPE_PRICE_STARTER_ANNUALLY"),
				},
				"professional": {
					Monthly:  os.Getenv("STRIPE_PRICE_PROFESSIONAL_MONTHLY"),
					Annually: os.Getenv("STRIPE_PRICE_PROFESSIONAL_ANNUALLY"),
				},
				"enterprise": {
					Monthly:  os.Getenv("STRIPE_PRICE_ENTERPRISE_MONTHLY"),
					Annually: os.Getenv("STRIPE_PRICE_ENTERPRISE_ANNUALLY"),
				},
			},
		},
		SMTP: email.SMTPConfig{
			Host:         os.Getenv("SMTP_HOST"),
			Port:         getEnvOrDefault("SMTP_PORT", "587"),
			Username:     os.Getenv("SMTP_USER"),
			Password:     os.Getenv("SMTP_PASSWORD"),
			From:         getEnvOrDefault("SMTP_FROM", "no-reply@lexcora.ae"),
			SalesAddress: getEnvOrDefault("SALES_EMAIL", "sales@lexcora.ae"),
		},
		Server: ServerConfig{
			Port:          getEnvOrDefault("SERVER_PORT", "8080"),
			PublicURL:     strings.TrimRight(getEnvOrDefault("PUBLIC_URL", "http://localhost:8080"), "/"),
			FrontendURL:   strings.TrimRight(getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"), "/"),
			AllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Domain: os.Getenv("SESSION_DOMAIN"),
			MaxAge: getEnvInt("SESSION_MAX_AGE", 1800),
			Secure: getEnvBool("SESSION_SECURE", true),
		},
		Checkout: CheckoutConfig{
			OTPTTL:         getEnvDuration("OTP_TTL", 10*time.Minute),
			OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),
			RequestTimeout: getEnvDuration("CHECKOUT_REQUEST_TIMEOUT", 15*time.Second),
			SessionTTL:     getEnvDuration("CHECKOUT_SESSION_TTL", 30*time.Minute),
			BypassCode:     os.Getenv("OTP_BYPASS_CODE"),
		},
		Captcha: CaptchaConfig{
			Secret:    os.Getenv("HCAPTCHA_SECRET"),
			VerifyURL: getEnvOrDefault("HCAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify"),
		},
		NATS: NATSConfig{
			URL:     os.Getenv("NATS_URL"),
			Subject: getEnvOrDefault("NATS_SUBJECT_PREFIX", "lexcora.checkout"),
		},
		Internal: InternalConfig{
			Secret: os.Getenv("INTERNAL_API_SECRET"),
		},
	}

	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}

	if cfg.Session.Secret == "" {
		log.Printf("Warning: SESSION_SECRET not set, checkout cookies and tokens use an ephemeral key")
	}

	if cfg.Stripe.Mode != "redirect" && cfg.Stripe.Mode != "embedded" {
		log.Printf("Warning: unknown STRIPE_CHECKOUT_MODE %q, using redirect", cfg.Stripe.Mode)
		cfg.Stripe.Mode = "redirect"
	}

	if cfg.Checkout.BypassCode != "" {
		log.Printf("Warning: OTP_BYPASS_CODE is set, verification accepts a fixed code")
	}

	log.Printf("Config loaded: server port %s, stripe mode %s, db host %s",
		cfg.Server.Port, cfg.Stripe.Mode, cfg.Database.Host)

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
