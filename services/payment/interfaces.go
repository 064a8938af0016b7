package payment

import (
	"context"

	"github.com/stripe/stripe-go/v79"

	"lexcora-checkout-api/models"
)

// StripeAPI is the part of the Stripe client the service calls.
type StripeAPI interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewSubscription(params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// Handoff is one way of taking a verified order to the provider.
type Handoff interface {
	Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error)
	Confirm(ctx context.Context, providerSessionID string) (models.PaymentOutcome, error)
}
