package email

import "lexcora-checkout-api/models"

type EmailSender interface {
	SendEmail(to, subject, body string) error
	SendOTPEmail(to, name, code string, lang models.Language) error
	SendReceiptEmail(to string, receipt Receipt) error
	SendSalesNotification(subject, body string) error
}

// Receipt is the data rendered into a payment confirmation email.
type Receipt struct {
	Name      string
	TierName  string
	Cycle     models.BillingCycle
	Amount    string
	RenewalOn string
	Reference string
	Language  models.Language
}
