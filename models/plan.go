package models

import (
	"fmt"
	"strings"
)

// BillingCycle is the payment cadence chosen before checkout starts.
type BillingCycle string

const (
	BillingMonthly  BillingCycle = "monthly"
	BillingAnnually BillingCycle = "annually"
)

func ParseBillingCycle(s string) (BillingCycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return BillingMonthly, nil
	case "annually", "annual", "yearly", "year":
		return BillingAnnually, nil
	default:
		return "", fmt.Errorf("invalid billing cycle: %q", s)
	}
}

// PricingTier is one named bundle from the catalog. Tiers are read-only for
// the checkout flow.
type PricingTier struct {
	Key              string   `json:"key"`
	Name             string   `json:"name"`
	Stars            int      `json:"stars"`
	PriceMonthly     string   `json:"priceMonthly"`
	PriceAnnually    string   `json:"priceAnnually"`
	PeriodLabel      string   `json:"periodLabel"`
	MinUsers         string   `json:"minUsers"`
	Features         []string `json:"features"`
	Highlight        bool     `json:"highlight"`
	CTA              string   `json:"cta"`
	PriceRefMonthly  string   `json:"stripePriceIdMonthly,omitempty"`
	PriceRefAnnually string   `json:"stripePriceIdAnnually,omitempty"`
}

// PriceRef returns the external price reference for the cycle.
func (t PricingTier) PriceRef(cycle BillingCycle) string {
	if cycle == BillingAnnually {
		return t.PriceRefAnnually
	}
	return t.PriceRefMonthly
}

// DisplayPrice returns the price string shown for the cycle.
func (t PricingTier) DisplayPrice(cycle BillingCycle) string {
	if cycle == BillingAnnually {
		return t.PriceAnnually
	}
	return t.PriceMonthly
}

// Purchasable reports whether the tier can be bought online for the cycle.
func (t PricingTier) Purchasable(cycle BillingCycle) bool {
	return t.PriceRef(cycle) != ""
}
