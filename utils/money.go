package utils

import (
	"math"
	"strconv"
	"strings"
)

func Round(value float64) float64 {
	return math.Round(value*100) / 100
}

// ParseDisplayPrice turns a catalog price string ("3,490", "٣,٤٩٠", "500+")
// into a number. ok is false for non-numeric prices such as "Custom".
func ParseDisplayPrice(price string) (float64, bool) {
	var b strings.Builder
	for _, r := range price {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r == '.' || r == '٫':
			b.WriteRune('.')
		case r == ',' || r == '٬' || r == ' ' || r == '+':
			// separators and the "starting from" marker
		default:
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return Round(v), true
}

// FormatAED renders an amount the way receipts show it: "AED 3,490.00".
func FormatAED(amount float64) string {
	s := strconv.FormatFloat(Round(amount), 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return "AED " + string(out) + frac
}
