package payment

import (
	"context"
	"fmt"

	"lexcora-checkout-api/models"
)

// RedirectHandoff sends the buyer to a Stripe-hosted checkout page and
// confirms the session when they come back.
type RedirectHandoff struct {
	svc *Service
}

func NewRedirectHandoff(svc *Service) *RedirectHandoff {
	return &RedirectHandoff{svc: svc}
}

func (h *RedirectHandoff) Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	return h.svc.CreateCheckoutSession(ctx, order)
}

func (h *RedirectHandoff) Confirm(ctx context.Context, providerSessionID string) (models.PaymentOutcome, error) {
	return h.svc.ConfirmCheckoutSession(ctx, providerSessionID)
}

// EmbeddedHandoff subscribes with a payment method tokenized in the browser
// by Stripe Elements. Card data never reaches this service.
type EmbeddedHandoff struct {
	svc *Service
}

func NewEmbeddedHandoff(svc *Service) *EmbeddedHandoff {
	return &EmbeddedHandoff{svc: svc}
}

func (h *EmbeddedHandoff) Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	return h.svc.CreateSubscription(ctx, order)
}

func (h *EmbeddedHandoff) Confirm(ctx context.Context, providerSessionID string) (models.PaymentOutcome, error) {
	return models.PaymentOutcome{}, ErrConfirmNotSupported
}

// NewHandoff picks the strategy for a configured mode.
func NewHandoff(mode string, svc *Service) (Handoff, error) {
	switch mode {
	case "redirect", "":
		return NewRedirectHandoff(svc), nil
	case "embedded":
		return NewEmbeddedHandoff(svc), nil
	default:
		return nil, fmt.Errorf("unknown payment mode %q", mode)
	}
}
