package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"lexcora-checkout-api/middleware"
	"lexcora-checkout-api/models"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

type CodeIssuer interface {
	Issue(ctx context.Context, req models.OTPRequest) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// OTPHandler serves the standalone send/verify contract used by the site's
// checkout modal.
type OTPHandler struct {
	otp     CodeIssuer
	captcha CaptchaVerifier
}

func NewOTPHandler(otp CodeIssuer, captcha CaptchaVerifier) *OTPHandler {
	return &OTPHandler{otp: otp, captcha: captcha}
}

type sendOTPRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Lang         string `json:"lang"`
	CaptchaToken string `json:"captchaToken"`
}

func (h *OTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Invalid request body"})
		return
	}

	if !verifyCaptcha(r, h.captcha, req.CaptchaToken) {
		utils.SendProviderResponse(w, http.StatusForbidden, models.ProviderResponse{Message: "Captcha verification failed"})
		return
	}

	err := h.otp.Issue(r.Context(), models.OTPRequest{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
		Lang:  models.ParseLanguage(req.Lang),
	})
	if err != nil {
		log.Printf("Error sending OTP to %s: %v", utils.MaskEmail(req.Email), err)
		status := http.StatusOK
		message := "Failed to send OTP. Please try again."
		if types.IsValidation(err) {
			status = http.StatusBadRequest
			message = err.Error()
		}
		utils.SendProviderResponse(w, status, models.ProviderResponse{Message: message})
		return
	}

	utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Success: true})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Invalid request body"})
		return
	}

	code := checkout.NormalizeCode(req.Code)
	if !checkout.IsCompleteCode(code) {
		utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Message: "Please enter the 6-digit code"})
		return
	}

	ok, err := h.otp.Verify(r.Context(), strings.TrimSpace(req.Email), code)
	if err != nil {
		log.Printf("Error verifying OTP for %s: %v", utils.MaskEmail(req.Email), err)
		utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Message: "Network error. Please check your connection and try again."})
		return
	}
	if !ok {
		utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Message: "Invalid OTP code"})
		return
	}

	utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Success: true})
}

// verifyCaptcha accepts the token from the body or the h-captcha-response
// header.
func verifyCaptcha(r *http.Request, v CaptchaVerifier, token string) bool {
	if v == nil {
		return true
	}
	if token == "" {
		token = r.Header.Get("h-captcha-response")
	}
	if err := v.Verify(r.Context(), token, middleware.ClientIP(r)); err != nil {
		log.Printf("Captcha verification failed from %s: %v", middleware.ClientIP(r), err)
		return false
	}
	return true
}
