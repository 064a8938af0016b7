package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

type TrialRecorder interface {
	TrialRequested(ctx context.Context, req *models.TrialRequest) error
}

type TrialHandler struct {
	trials  TrialRecorder
	captcha CaptchaVerifier
}

func NewTrialHandler(trials TrialRecorder, captcha CaptchaVerifier) *TrialHandler {
	return &TrialHandler{trials: trials, captcha: captcha}
}

type trialSignupRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	FirmName     string `json:"firmName"`
	FirmSize     string `json:"firmSize"`
	Lang         string `json:"lang"`
	CaptchaToken string `json:"captchaToken"`
}

func (h *TrialHandler) TrialSignup(w http.ResponseWriter, r *http.Request) {
	var req trialSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Invalid request body"})
		return
	}

	if !verifyCaptcha(r, h.captcha, req.CaptchaToken) {
		utils.SendProviderResponse(w, http.StatusForbidden, models.ProviderResponse{Message: "Captcha verification failed"})
		return
	}

	trial := &models.TrialRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		FirmName: req.FirmName,
		FirmSize: req.FirmSize,
		Language: models.ParseLanguage(req.Lang),
	}
	if err := h.trials.TrialRequested(r.Context(), trial); err != nil {
		if types.IsValidation(err) {
			utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: err.Error()})
			return
		}
		log.Printf("Error saving trial request from %s: %v", utils.MaskEmail(req.Email), err)
		utils.SendProviderResponse(w, http.StatusInternalServerError, models.ProviderResponse{Message: "Something went wrong. Please try again."})
		return
	}

	log.Printf("Trial request %s recorded for %s", trial.ID, utils.MaskEmail(trial.Email))
	utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{Success: true})
}
