package models

// PaymentInput carries what the buyer supplies at the payment step. The
// payment method id is only used by embedded mode; raw card data never
// reaches this service.
type PaymentInput struct {
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
}

// PaymentOrder is the finalized contact + tier + cycle triple handed to the
// payment provider.
type PaymentOrder struct {
	CheckoutID      string
	Contact         ContactInfo
	TierKey         string
	TierName        string
	Cycle           BillingCycle
	PriceRef        string
	Language        Language
	PaymentMethodID string
	SuccessURL      string
	CancelURL       string
}

// PaymentOutcome is what a handoff strategy reports back.
type PaymentOutcome struct {
	Completed         bool
	RedirectURL       string
	ProviderSessionID string
	SubscriptionID    string
	CustomerID        string
}
