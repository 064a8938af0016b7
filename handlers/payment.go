package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

type PaymentStarter interface {
	CreateCheckoutSession(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error)
	CreateSubscription(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error)
}

// PaymentHandler serves the direct create-checkout-session and
// create-subscription contract. The client-supplied price must match the
// catalog, so a buyer cannot pick their own price.
type PaymentHandler struct {
	payments    PaymentStarter
	catalog     checkout.Catalog
	frontendURL string
}

func NewPaymentHandler(payments PaymentStarter, catalog checkout.Catalog, frontendURL string) *PaymentHandler {
	return &PaymentHandler{payments: payments, catalog: catalog, frontendURL: frontendURL}
}

type paymentRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Tier            string `json:"tier"`
	BillingCycle    string `json:"billingCycle"`
	PriceID         string `json:"priceId"`
	Lang            string `json:"lang"`
	SuccessURL      string `json:"successUrl"`
	CancelURL       string `json:"cancelUrl"`
	PaymentMethodID string `json:"paymentMethodId"`
}

func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	order, ok := h.decodeOrder(w, r, requestID)
	if !ok {
		return
	}

	outcome, err := h.payments.CreateCheckoutSession(r.Context(), order)
	if err != nil {
		log.Printf("[RequestID: %s] Error creating checkout session: %v", requestID, err)
		sendPaymentFailure(w, err)
		return
	}

	utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{
		Success:   true,
		SessionID: outcome.ProviderSessionID,
		URL:       outcome.RedirectURL,
	})
}

func (h *PaymentHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	order, ok := h.decodeOrder(w, r, requestID)
	if !ok {
		return
	}

	outcome, err := h.payments.CreateSubscription(r.Context(), order)
	if err != nil {
		log.Printf("[RequestID: %s] Error creating subscription: %v", requestID, err)
		sendPaymentFailure(w, err)
		return
	}

	utils.SendProviderResponse(w, http.StatusOK, models.ProviderResponse{
		Success:        true,
		SubscriptionID: outcome.SubscriptionID,
	})
}

func (h *PaymentHandler) decodeOrder(w http.ResponseWriter, r *http.Request, requestID string) (models.PaymentOrder, bool) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[RequestID: %s] Invalid request body: %v", requestID, err)
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Invalid request body"})
		return models.PaymentOrder{}, false
	}

	contact, err := checkout.ValidateContact(models.ContactInfo{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: err.Error()})
		return models.PaymentOrder{}, false
	}

	cycle, err := models.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Invalid billing cycle"})
		return models.PaymentOrder{}, false
	}
	lang := models.ParseLanguage(req.Lang)

	tier, found := h.catalog.Find(r.Context(), req.Tier, lang)
	if !found {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Unknown pricing tier"})
		return models.PaymentOrder{}, false
	}
	priceRef := tier.PriceRef(cycle)
	if priceRef == "" {
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "This plan cannot be purchased online. Please contact sales."})
		return models.PaymentOrder{}, false
	}
	if req.PriceID != "" && req.PriceID != priceRef {
		log.Printf("[RequestID: %s] Price mismatch for tier %s/%s: got %s", requestID, tier.Key, cycle, req.PriceID)
		utils.SendProviderResponse(w, http.StatusBadRequest, models.ProviderResponse{Message: "Price does not match the selected plan"})
		return models.PaymentOrder{}, false
	}

	log.Printf("[RequestID: %s] Payment request for tier=%s cycle=%s email=%s", requestID, tier.Key, cycle, utils.MaskEmail(contact.Email))

	return models.PaymentOrder{
		CheckoutID:      "direct-" + requestID,
		Contact:         contact,
		TierKey:         tier.Key,
		TierName:        tier.Name,
		Cycle:           cycle,
		PriceRef:        priceRef,
		Language:        lang,
		PaymentMethodID: strings.TrimSpace(req.PaymentMethodID),
		SuccessURL:      h.returnURL(req.SuccessURL, "success"),
		CancelURL:       h.returnURL(req.CancelURL, "cancel"),
	}, true
}

// returnURL keeps client-supplied return URLs only when they point back at
// the site; anything else falls back to the frontend with a payment flag.
func (h *PaymentHandler) returnURL(raw, status string) string {
	if raw != "" && sameOrigin(raw, h.frontendURL) {
		return raw
	}
	u := h.frontendURL + "/?payment=" + status
	if status == "success" {
		u += "&session_id={CHECKOUT_SESSION_ID}"
	}
	return u
}

func sameOrigin(raw, base string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}
	return u.Scheme == b.Scheme && u.Host == b.Host
}

func sendPaymentFailure(w http.ResponseWriter, err error) {
	message := "Payment failed. Please try again."
	status := http.StatusOK
	switch {
	case types.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case types.ProviderMessage(err) != "":
		message = types.ProviderMessage(err)
	case types.IsTransport(err):
		status = http.StatusBadGateway
		message = "Network error. Please check your connection and try again."
	}
	utils.SendProviderResponse(w, status, models.ProviderResponse{Message: message})
}
