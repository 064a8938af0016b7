package utils

import (
	"time"

	"lexcora-checkout-api/models"
)

func AddOneMonth(date time.Time) time.Time {
	return date.AddDate(0, 1, 0)
}

func AddOneYear(date time.Time) time.Time {
	return date.AddDate(1, 0, 0)
}

// NextRenewal is the first renewal date of a subscription started at date.
func NextRenewal(date time.Time, cycle models.BillingCycle) time.Time {
	if cycle == models.BillingAnnually {
		return AddOneYear(date)
	}
	return AddOneMonth(date)
}

func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
