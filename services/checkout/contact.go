package checkout

import (
	"errors"
	"strings"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
)

// ValidateContact trims the fields and checks them in form order. The
// returned ValidationError names the first bad field.
func ValidateContact(info models.ContactInfo) (models.ContactInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)

	if info.Name == "" {
		return info, types.NewValidationError("name", "name is required")
	}
	if !looksLikeEmail(info.Email) {
		return info, types.NewValidationError("email", "email is not valid")
	}
	phone, ok := normalizePhone(info.Phone)
	if !ok {
		return info, types.NewValidationError("phone", "phone is not valid")
	}
	info.Phone = phone
	return info, nil
}

// looksLikeEmail accepts local@domain.tld shapes. It is not RFC 5322.
func looksLikeEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") || strings.Count(email, "@") != 1 {
		return false
	}
	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// normalizePhone maps Arabic-Indic digits to ASCII. Any non-empty value is
// accepted; the number is checked by a person, not by the form.
func normalizePhone(phone string) (string, bool) {
	if phone == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '٠' && r <= '٩' {
			r = '0' + (r - '٠')
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

func contactMessage(err error, lang models.Language) string {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		switch ve.Field {
		case "name":
			return localize(lang, msgNameRequired)
		case "phone":
			return localize(lang, msgInvalidPhone)
		}
	}
	return localize(lang, msgInvalidEmail)
}
