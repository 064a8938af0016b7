package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

const CodeLength = 6

// Mailer delivers a code to the buyer.
type Mailer interface {
	SendOTPEmail(to, name, code string, lang models.Language) error
}

type Config struct {
	TTL time.Duration
	// MaxAttempts wrong guesses burn the live code; a new one must be issued.
	MaxAttempts int
	// BypassCode is accepted for any address when non-empty. Test fixture only.
	BypassCode string
}

// Service issues and verifies email one-time codes. Codes are kept hashed
// and bound to the destination address.
type Service struct {
	store  CodeStore
	mailer Mailer
	config Config
}

func NewService(store CodeStore, mailer Mailer, config Config) *Service {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &Service{store: store, mailer: mailer, config: config}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code for the address, replacing any previous one,
// and emails it.
func (s *Service) Issue(ctx context.Context, req models.OTPRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return types.NewValidationError("email", "a valid email address is required")
	}

	code := utils.GenerateNumericCode(CodeLength)
	if err := s.store.Save(ctx, email, utils.HashCode(email, code), s.config.TTL); err != nil {
		return types.NewTransportError("store otp", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.mailer.SendOTPEmail(email, req.Name, code, req.Lang)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("Error sending OTP email to %s: %v", utils.MaskEmail(email), err)
			return types.NewTransportError("send otp email", err)
		}
	case <-ctx.Done():
		return types.NewTransportError("send otp email", ctx.Err())
	}

	log.Printf("OTP issued for %s", utils.MaskEmail(email))
	return nil
}

// Verify reports whether code is the live code for email. A matching code
// is consumed.
func (s *Service) Verify(ctx context.Context, email, code string) (bool, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return false, nil
	}

	if s.config.BypassCode != "" &&
		subtle.ConstantTimeCompare([]byte(code), []byte(s.config.BypassCode)) == 1 {
		log.Printf("OTP bypass code accepted for %s", utils.MaskEmail(email))
		return true, nil
	}

	stored, err := s.store.Get(ctx, email)
	if errors.Is(err, ErrCodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, types.NewTransportError("load otp", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(utils.HashCode(email, code))) != 1 {
		s.countMiss(ctx, email)
		return false, nil
	}

	if err := s.store.Delete(ctx, email); err != nil {
		log.Printf("Warning: failed to delete consumed OTP for %s: %v", utils.MaskEmail(email), err)
	}
	return true, nil
}

func (s *Service) countMiss(ctx context.Context, email string) {
	misses, err := s.store.Miss(ctx, email, s.config.TTL)
	if err != nil {
		// The code stays live; the rate limiter still applies.
		log.Printf("Warning: failed to count OTP miss for %s: %v", utils.MaskEmail(email), err)
		return
	}
	if misses < s.config.MaxAttempts {
		return
	}
	log.Printf("OTP for %s burned after %d wrong attempts", utils.MaskEmail(email), misses)
	if err := s.store.Delete(ctx, email); err != nil {
		log.Printf("Warning: failed to delete burned OTP for %s: %v", utils.MaskEmail(email), err)
	}
}
