package captcha

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"lexcora-checkout-api/types"
)

const DefaultVerifyURL = "https://hcaptcha.com/siteverify"

var (
	ErrMissingToken = errors.New("captcha token is required")
	ErrRejected     = errors.New("hCaptcha validation failed")
)

type HCaptchaResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
}

// Verifier checks hCaptcha tokens. Without a secret it accepts everything,
// which is how local development runs.
type Verifier struct {
	client    *resty.Client
	secret    string
	verifyURL string
}

func NewVerifier(secret, verifyURL string) *Verifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Verifier{
		client:    resty.New().SetTimeout(10 * time.Second),
		secret:    secret,
		verifyURL: verifyURL,
	}
}

func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrMissingToken
	}

	form := map[string]string{
		"secret":   v.secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	var result HCaptchaResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&result).
		Post(v.verifyURL)
	if err != nil {
		return &types.TransportError{Op: "hcaptcha verify", Err: err}
	}
	if resp.IsError() {
		return &types.TransportError{Op: "hcaptcha verify", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}

	if !result.Success {
		if len(result.ErrorCodes) > 0 && result.ErrorCodes[0] == "already-seen-response" {
			log.Printf("Warning: hCaptcha token reuse attempted: %v", result.ErrorCodes)
			return nil
		}
		if len(result.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrRejected, strings.Join(result.ErrorCodes, ", "))
		}
		return ErrRejected
	}

	return nil
}
