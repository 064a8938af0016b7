package models

import "time"

// ContactInfo is the buyer identity collected in the first checkout step.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// IsEmpty reports whether no field has been filled in.
func (c ContactInfo) IsEmpty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == ""
}

// Step is the position of a checkout session in its flow.
type Step int

const (
	StepClosed Step = iota
	StepContact
	StepOTP
	StepPayment
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepClosed:
		return "closed"
	case StepContact:
		return "contact"
	case StepOTP:
		return "otp"
	case StepPayment:
		return "payment"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckoutView is what the rendering layer sees of a checkout session.
type CheckoutView struct {
	SessionID   string       `json:"session_id"`
	Step        Step         `json:"step"`
	Contact     ContactInfo  `json:"contact"`
	MaskedEmail string       `json:"masked_email,omitempty"`
	Tier        *PricingTier `json:"tier,omitempty"`
	Cycle       BillingCycle `json:"billing_cycle,omitempty"`
	Price       string       `json:"price,omitempty"`
	Language    Language     `json:"lang"`
	EnteredCode string       `json:"entered_code,omitempty"`
	OTPSends    int          `json:"otp_sends"`
	Error       string       `json:"error,omitempty"`
	Processing  bool         `json:"processing"`
	RedirectURL string       `json:"redirect_url,omitempty"`
}

// CheckoutRecord is the persisted trace of one checkout session.
type CheckoutRecord struct {
	SessionID         string         `json:"session_id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Phone             string         `json:"phone"`
	TierKey           string         `json:"tier"`
	Cycle             BillingCycle   `json:"billing_cycle"`
	Language          Language       `json:"lang"`
	Status            CheckoutStatus `json:"status"`
	ProviderSessionID string         `json:"provider_session_id,omitempty"`
	SubscriptionID    string         `json:"subscription_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
