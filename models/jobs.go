package models

import "time"

// ReceiptPayload is the data of a send_receipt job.
type ReceiptPayload struct {
	CheckoutID string       `json:"checkout_id"`
	Email      string       `json:"email"`
	Name       string       `json:"name"`
	TierName   string       `json:"tier_name"`
	Cycle      BillingCycle `json:"billing_cycle"`
	Amount     string       `json:"amount"`
	RenewalOn  string       `json:"renewal_on"`
	Reference  string       `json:"reference"`
	Language   Language     `json:"lang"`
}

// SalesPayload is the data of a notify_sales job.
type SalesPayload struct {
	Subject string      `json:"subject"`
	Title   string      `json:"title"`
	Fields  [][2]string `json:"fields"`
}

type EventType string

const (
	EventLead           EventType = "lead"
	EventVerified       EventType = "verified"
	EventPaid           EventType = "paid"
	EventTrialRequested EventType = "trial.requested"
)

// CheckoutEvent is published for downstream consumers (CRM sync, analytics).
type CheckoutEvent struct {
	Type       EventType    `json:"type"`
	CheckoutID string       `json:"checkout_id,omitempty"`
	Email      string       `json:"email,omitempty"`
	Name       string       `json:"name,omitempty"`
	Tier       string       `json:"tier,omitempty"`
	Cycle      BillingCycle `json:"billing_cycle,omitempty"`
	Language   Language     `json:"lang,omitempty"`
	Reference  string       `json:"reference,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
