package payment

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

type Service struct {
	api StripeAPI
}

func NewPaymentService(api StripeAPI) *Service {
	return &Service{
		api: api,
	}
}

// ValidateOrder checks what every Stripe request needs.
func (s *Service) ValidateOrder(order models.PaymentOrder) error {
	if strings.TrimSpace(order.PriceRef) == "" {
		return types.NewValidationError("priceId", "price reference is required")
	}
	if !strings.Contains(order.Contact.Email, "@") {
		return types.NewValidationError("email", "email is required")
	}
	if order.TierKey == "" {
		return types.NewValidationError("tier", "tier is required")
	}
	return nil
}

func orderMetadata(order models.PaymentOrder) map[string]string {
	return map[string]string{
		"checkout_id":   order.CheckoutID,
		"tier":          order.TierKey,
		"billing_cycle": string(order.Cycle),
		"name":          order.Contact.Name,
		"phone":         order.Contact.Phone,
		"lang":          string(order.Language),
	}
}

// checkoutSessionParams builds a subscription-mode hosted checkout for one
// seat bundle at the cycle's price.
func checkoutSessionParams(order models.PaymentOrder) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(order.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(order.Contact.Email),
		SuccessURL:    stripe.String(order.SuccessURL),
		CancelURL:     stripe.String(order.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: orderMetadata(order),
		},
	}
	if order.CheckoutID != "" {
		params.ClientReferenceID = stripe.String(order.CheckoutID)
	}
	for k, v := range orderMetadata(order) {
		params.AddMetadata(k, v)
	}
	return params
}

// CreateCheckoutSession starts a hosted checkout and returns where to send
// the buyer.
func (s *Service) CreateCheckoutSession(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	if err := s.ValidateOrder(order); err != nil {
		return models.PaymentOutcome{}, err
	}
	if order.SuccessURL == "" || order.CancelURL == "" {
		return models.PaymentOutcome{}, types.NewValidationError("successUrl", "success and cancel URLs are required")
	}

	log.Printf("Creating checkout session for checkout %s (tier=%s cycle=%s)", order.CheckoutID, order.TierKey, order.Cycle)

	params := checkoutSessionParams(order)
	params.Context = ctx

	sess, err := s.api.NewCheckoutSession(params)
	if err != nil {
		log.Printf("Error creating checkout session for checkout %s: %v", order.CheckoutID, err)
		return models.PaymentOutcome{}, classifyError("create checkout session", err)
	}

	log.Printf("Checkout session %s created for checkout %s", sess.ID, order.CheckoutID)
	return models.PaymentOutcome{
		RedirectURL:       sess.URL,
		ProviderSessionID: sess.ID,
	}, nil
}

// ConfirmCheckoutSession reads a hosted checkout back from Stripe. The
// outcome is completed only when the session is complete and paid.
func (s *Service) ConfirmCheckoutSession(ctx context.Context, id string) (models.PaymentOutcome, error) {
	if id == "" {
		return models.PaymentOutcome{}, types.NewValidationError("session_id", "session id is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.GetCheckoutSession(id, params)
	if err != nil {
		log.Printf("Error retrieving checkout session %s: %v", id, err)
		return models.PaymentOutcome{}, classifyError("get checkout session", err)
	}
	return outcomeFromSession(sess), nil
}

func outcomeFromSession(sess *stripe.CheckoutSession) models.PaymentOutcome {
	outcome := models.PaymentOutcome{ProviderSessionID: sess.ID}
	if sess.Subscription != nil {
		outcome.SubscriptionID = sess.Subscription.ID
	}
	if sess.Customer != nil {
		outcome.CustomerID = sess.Customer.ID
	}
	paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	outcome.Completed = sess.Status == stripe.CheckoutSessionStatusComplete && paid
	return outcome
}

// SessionOutcome exposes the completion rule for webhook payloads.
func SessionOutcome(sess *stripe.CheckoutSession) models.PaymentOutcome {
	return outcomeFromSession(sess)
}

// CreateSubscription charges a tokenized payment method: create the
// customer with the method as default, then subscribe it to the price.
func (s *Service) CreateSubscription(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	if err := s.ValidateOrder(order); err != nil {
		return models.PaymentOutcome{}, err
	}
	if !strings.HasPrefix(order.PaymentMethodID, "pm_") {
		return models.PaymentOutcome{}, types.NewValidationError("paymentMethodId", "payment method is required")
	}

	attempt := uuid.New().String()
	log.Printf("Creating subscription for checkout %s (tier=%s cycle=%s attempt=%s)",
		order.CheckoutID, order.TierKey, order.Cycle, attempt)

	custParams := &stripe.CustomerParams{
		Email:         stripe.String(order.Contact.Email),
		Name:          stripe.String(order.Contact.Name),
		Phone:         stripe.String(order.Contact.Phone),
		PaymentMethod: stripe.String(order.PaymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(order.PaymentMethodID),
		},
	}
	custParams.Context = ctx
	custParams.SetIdempotencyKey("customer-" + attempt)
	for k, v := range orderMetadata(order) {
		custParams.AddMetadata(k, v)
	}

	cust, err := s.api.NewCustomer(custParams)
	if err != nil {
		log.Printf("Error creating customer for checkout %s: %v", order.CheckoutID, err)
		return models.PaymentOutcome{}, classifyError("create customer", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(order.PriceRef)},
		},
		DefaultPaymentMethod: stripe.String(order.PaymentMethodID),
	}
	subParams.Context = ctx
	subParams.SetIdempotencyKey("subscription-" + attempt)
	subParams.AddExpand("latest_invoice.payment_intent")
	for k, v := range orderMetadata(order) {
		subParams.AddMetadata(k, v)
	}

	sub, err := s.api.NewSubscription(subParams)
	if err != nil {
		log.Printf("Error creating subscription for checkout %s: %v", order.CheckoutID, err)
		return models.PaymentOutcome{}, classifyError("create subscription", err)
	}

	outcome := models.PaymentOutcome{SubscriptionID: sub.ID, CustomerID: cust.ID}
	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		outcome.Completed = true
		log.Printf("Subscription %s active for checkout %s", sub.ID, order.CheckoutID)
		return outcome, nil
	default:
		msg := declineMessage(sub)
		log.Printf("Subscription %s for checkout %s not active: status=%s", sub.ID, order.CheckoutID, sub.Status)
		return outcome, types.NewProviderError(string(sub.Status), msg)
	}
}

func declineMessage(sub *stripe.Subscription) string {
	if inv := sub.LatestInvoice; inv != nil && inv.PaymentIntent != nil {
		if pe := inv.PaymentIntent.LastPaymentError; pe != nil && pe.Msg != "" {
			return pe.Msg
		}
		if inv.PaymentIntent.Status == stripe.PaymentIntentStatusRequiresAction {
			return "Your card requires additional authentication."
		}
	}
	return "Payment failed. Please try again."
}

// AmountFor returns the numeric price of a tier for receipts, in AED.
func AmountFor(tier models.PricingTier, cycle models.BillingCycle) (float64, string) {
	amount, ok := utils.ParseDisplayPrice(tier.DisplayPrice(cycle))
	if !ok {
		return 0, tier.DisplayPrice(cycle)
	}
	return amount, utils.FormatAED(amount)
}
