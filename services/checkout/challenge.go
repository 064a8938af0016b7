package checkout

import (
	"strings"
	"time"
	"unicode"

	"lexcora-checkout-api/utils"
)

const codeLength = 6

type challenge struct {
	enteredCode string
	sends       int
	lastSentAt  time.Time
}

// NormalizeCode maps Arabic-Indic digits to ASCII and drops whitespace.
// Anything else is kept, so IsCompleteCode rejects it.
func NormalizeCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsCompleteCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func MaskEmail(email string) string {
	return utils.MaskEmail(email)
}
