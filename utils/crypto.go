package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

func GenerateRandomString(length int) string {
	const charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	return randomFrom(charset, length)
}

// GenerateNumericCode returns a code of the given length made of decimal digits.
func GenerateNumericCode(length int) string {
	return randomFrom("0123456789", length)
}

func randomFrom(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// HashCode binds a one-time code to its destination so stored values are
// useless on their own.
func HashCode(destination, code string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(destination) + "|" + code))
	return hex.EncodeToString(sum[:])
}

// MaskEmail keeps the first character of the local part and the whole domain:
// ahmed@firm.ae -> a****@firm.ae
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	runes := []rune(local)
	if len(runes) == 1 {
		return local + "*" + domain
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-1) + domain
}
