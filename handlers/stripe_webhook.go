package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"lexcora-checkout-api/database"
	"lexcora-checkout-api/models"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/services/payment"
	"lexcora-checkout-api/utils"
)

const maxWebhookBody = int64(65536)

// PaymentRecords is the persistence side of a webhook: used when the
// checkout session is not held by this instance.
type PaymentRecords interface {
	Record(ctx context.Context, checkoutID string) (*models.CheckoutRecord, error)
	RecordByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error)
	PaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error
	DirectPaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error
	CheckoutExpired(ctx context.Context, checkoutID string) error
}

type StripeWebhookHandler struct {
	secret  string
	manager *checkout.Manager
	records PaymentRecords
	catalog checkout.Catalog
}

func NewStripeWebhookHandler(secret string, manager *checkout.Manager, records PaymentRecords, catalog checkout.Catalog) *StripeWebhookHandler {
	return &StripeWebhookHandler{secret: secret, manager: manager, records: records, catalog: catalog}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		log.Printf("stripe webhook secret missing")
		utils.SendErrorResponse(w, http.StatusInternalServerError, "webhook not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		log.Printf("stripe webhook signature failed: %v", err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe session unmarshal failed: %v", err)
			utils.SendErrorResponse(w, http.StatusBadRequest, "invalid session payload")
			return
		}
		if err := h.sessionCompleted(r.Context(), &sess); err != nil {
			log.Printf("stripe session %s: recording payment failed: %v", sess.ID, err)
			utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to record payment")
			return
		}
	case stripe.EventTypeCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe session unmarshal failed: %v", err)
			utils.SendErrorResponse(w, http.StatusBadRequest, "invalid session payload")
			return
		}
		if sess.ClientReferenceID != "" {
			if err := h.records.CheckoutExpired(r.Context(), sess.ClientReferenceID); err != nil {
				log.Printf("stripe session %s: marking checkout %s expired failed: %v", sess.ID, sess.ClientReferenceID, err)
			}
		}
	default:
		// Other events are acknowledged and ignored.
	}

	utils.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StripeWebhookHandler) sessionCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	outcome := payment.SessionOutcome(sess)
	if !outcome.Completed {
		log.Printf("stripe session %s (checkout %q) not paid yet (status=%s payment=%s)",
			sess.ID, sess.ClientReferenceID, sess.Status, sess.PaymentStatus)
		return nil
	}

	checkoutID := sess.ClientReferenceID
	var rec *models.CheckoutRecord
	if checkoutID == "" {
		found, err := h.records.RecordByProviderSession(ctx, sess.ID)
		if errors.Is(err, database.ErrCheckoutNotFound) {
			log.Printf("stripe session %s has no client reference and no stored checkout, ignoring", sess.ID)
			return nil
		}
		if err != nil {
			return err
		}
		rec = found
		checkoutID = found.SessionID
	}

	if live, err := h.manager.Get(checkoutID); err == nil {
		err := live.ConfirmRedirect(ctx, sess.ID)
		if err == nil {
			return nil
		}
		log.Printf("Checkout %s: live confirmation from webhook failed, recording directly: %v", checkoutID, err)
	}

	if rec == nil {
		found, err := h.records.Record(ctx, checkoutID)
		if errors.Is(err, database.ErrCheckoutNotFound) {
			// Hosted sessions from the direct endpoint are never stored up front.
			direct := recordFromSession(sess)
			log.Printf("stripe session %s: no stored checkout %s, recording from the session", sess.ID, checkoutID)
			return h.records.DirectPaymentCompleted(ctx, direct, h.tierFor(ctx, direct), outcome)
		}
		if err != nil {
			return err
		}
		rec = found
	}
	return h.records.PaymentCompleted(ctx, *rec, h.tierFor(ctx, *rec), outcome)
}

func (h *StripeWebhookHandler) tierFor(ctx context.Context, rec models.CheckoutRecord) models.PricingTier {
	if tier, ok := h.catalog.Find(ctx, rec.TierKey, rec.Language); ok {
		return tier
	}
	return models.PricingTier{Key: rec.TierKey, Name: rec.TierKey}
}

// recordFromSession rebuilds a checkout record from the metadata written
// when the hosted session was created.
func recordFromSession(sess *stripe.CheckoutSession) models.CheckoutRecord {
	meta := sess.Metadata
	rec := models.CheckoutRecord{
		SessionID:         sess.ClientReferenceID,
		Name:              meta["name"],
		Email:             sess.CustomerEmail,
		Phone:             meta["phone"],
		TierKey:           meta["tier"],
		Language:          models.ParseLanguage(meta["lang"]),
		ProviderSessionID: sess.ID,
	}
	if cycle, err := models.ParseBillingCycle(meta["billing_cycle"]); err == nil {
		rec.Cycle = cycle
	}
	if d := sess.CustomerDetails; d != nil {
		if rec.Email == "" {
			rec.Email = d.Email
		}
		if rec.Name == "" {
			rec.Name = d.Name
		}
		if rec.Phone == "" {
			rec.Phone = d.Phone
		}
	}
	return rec
}
