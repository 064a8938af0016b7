package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/utils"
)

type RateLimiter struct {
	client  *redis.Client
	configs map[string]RateLimitConfig
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

var defaultConfigs = map[string]RateLimitConfig{
	"/api/send-otp": {
		Requests: 5,
		Window:   10 * time.Minute,
		Message:  "Too many verification codes requested. Please try again in 10 minutes.",
	},
	"/api/checkout/otp/resend": {
		Requests: 5,
		Window:   10 * time.Minute,
		Message:  "Too many verification codes requested. Please try again in 10 minutes.",
	},
	"/api/checkout/contact": {
		Requests: 10,
		Window:   10 * time.Minute,
		Message:  "Too many verification codes requested. Please try again in 10 minutes.",
	},
	"/api/checkout/otp": {
		Requests: 10,
		Window:   10 * time.Minute,
		Message:  "Too many verification attempts. Please wait 10 minutes.",
	},
	"/api/verify-otp": {
		Requests: 10,
		Window:   10 * time.Minute,
		Message:  "Too many verification attempts. Please wait 10 minutes.",
	},
	"/api/trial-signup": {
		Requests: 5,
		Window:   time.Hour,
		Message:  "Too many trial requests. Please try again later.",
	},
	"/api/stripe/webhook": {
		Requests: 600,
		Window:   time.Minute,
		Message:  "Webhook rate limit exceeded.",
	},
	"default": {
		Requests: 60,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

// rateLimitScript counts requests of the current fixed window in a sorted
// set and admits the request if under the limit.
const rateLimitScript = `
    local key = KEYS[1]
    local window_start = tonumber(ARGV[1])
    local limit = tonumber(ARGV[2])
    local now = tonumber(ARGV[3])
    local member = ARGV[4]
    local ttl = tonumber(ARGV[5])

    redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

    local current_count = redis.call('ZCARD', key)

    if current_count < limit then
        redis.call('ZADD', key, now, member)
        redis.call('EXPIRE', key, ttl)
        return {1, limit - current_count - 1}
    else
        return {0, 0}
    end
`

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, configs: defaultConfigs}
}

// RateLimitMiddleware fails open: a Redis error lets the request through.
func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			config := rl.getConfigForEndpoint(r.URL.Path)
			key := rl.getRateLimitKey(r)

			allowed, remaining, resetTime, err := rl.checkRateLimit(r.Context(), key, config)
			if err != nil {
				log.Printf("Rate limit check error: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				log.Printf("Rate limit exceeded for key: %s, endpoint: %s", key, r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
				w.WriteHeader(http.StatusTooManyRequests)

				json.NewEncoder(w).Encode(models.APIResponse{
					Status:  "error",
					Message: config.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getConfigForEndpoint(path string) RateLimitConfig {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	path = strings.TrimRight(path, "/")

	if config, exists := rl.configs[path]; exists {
		return config
	}

	if strings.HasPrefix(path, "/api/checkout/callback/") {
		return RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
			Message:  "Too many payment callbacks. Please slow down.",
		}
	}

	return rl.configs["default"]
}

func (rl *RateLimiter) getRateLimitKey(r *http.Request) string {
	return fmt.Sprintf("rate_limit:%s:%s", getClientIP(r), strings.TrimRight(r.URL.Path, "/"))
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()
	windowStart := now.Truncate(config.Window)
	windowEnd := windowStart.Add(config.Window)
	member := fmt.Sprintf("%d-%s", now.UnixNano(), utils.GenerateRandomString(6))

	result, err := rl.client.Eval(ctx, rateLimitScript, []string{key},
		windowStart.Unix(), config.Requests, now.Unix(), member, int64(config.Window.Seconds())+60).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	allowedInt, ok1 := resultSlice[0].(int64)
	remainingInt, ok2 := resultSlice[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowedInt == 1, int(remainingInt), windowEnd, nil
}
