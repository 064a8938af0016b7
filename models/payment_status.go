package models

// CheckoutStatus is the lifecycle status stored with a checkout record.
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusVerified  CheckoutStatus = "verified"
	CheckoutStatusPaid      CheckoutStatus = "paid"
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
)

func (cs CheckoutStatus) String() string {
	return string(cs)
}

func (cs CheckoutStatus) IsValid() bool {
	switch cs {
	case CheckoutStatusPending, CheckoutStatusVerified, CheckoutStatusPaid, CheckoutStatusCancelled:
		return true
	}
	return false
}
