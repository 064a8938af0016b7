package handlers

import (
	"context"
	"net/http"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/utils"
)

type TierLister interface {
	Tiers(ctx context.Context, lang models.Language) []models.PricingTier
}

type PricingHandler struct {
	catalog TierLister
}

func NewPricingHandler(catalog TierLister) *PricingHandler {
	return &PricingHandler{catalog: catalog}
}

func (h *PricingHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	lang := models.ParseLanguage(r.URL.Query().Get("lang"))

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Pricing retrieved successfully",
		Data: map[string]interface{}{
			"lang":  lang,
			"tiers": h.catalog.Tiers(r.Context(), lang),
		},
	})
}
