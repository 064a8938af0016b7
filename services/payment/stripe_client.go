package payment

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type stripeClient struct {
	api *client.API
}

// NewStripeClient returns a StripeAPI bound to secretKey. The library retries
// failed network calls twice by default. Retries reuse the request's
// idempotency key (ours for customers and subscriptions, a generated one
// otherwise), so a charge is never applied twice.
func NewStripeClient(secretKey string) StripeAPI {
	return &stripeClient{api: client.New(secretKey, nil)}
}

func (c *stripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.New(params)
}

func (c *stripeClient) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.Get(id, params)
}

func (c *stripeClient) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return c.api.Customers.New(params)
}

func (c *stripeClient) NewSubscription(params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return c.api.Subscriptions.New(params)
}
