package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from models.Step
		ev   event
		to   models.Step
		ok   bool
	}{
		{models.StepClosed, evOpen, models.StepContact, true},
		{models.StepContact, evContactAccepted, models.StepOTP, true},
		{models.StepOTP, evCodeVerified, models.StepPayment, true},
		{models.StepPayment, evPaid, models.StepSuccess, true},
		{models.StepOTP, evBack, models.StepContact, true},
		{models.StepPayment, evBack, models.StepOTP, true},
		{models.StepSuccess, evClose, models.StepClosed, true},
		{models.StepPayment, evClose, models.StepClosed, true},

		{models.StepContact, evPaid, models.StepContact, false},
		{models.StepContact, evCodeVerified, models.StepContact, false},
		{models.StepOTP, evPaid, models.StepOTP, false},
		{models.StepContact, evBack, models.StepContact, false},
		{models.StepSuccess, evBack, models.StepSuccess, false},
		{models.StepContact, evOpen, models.StepContact, false},
		{models.StepClosed, evContactAccepted, models.StepClosed, false},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"/"+tc.ev.String(), func(t *testing.T) {
			next, err := transition(tc.from, tc.ev)
			assert.Equal(t, tc.to, next)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestValidateContact(t *testing.T) {
	cases := []struct {
		name  string
		in    models.ContactInfo
		field string
	}{
		{"valid", models.ContactInfo{Name: " Sara ", Email: "sara@firm.ae", Phone: "+971 (50) 123-4567"}, ""},
		{"arabic digits", models.ContactInfo{Name: "سارة", Email: "sara@firm.ae", Phone: "٠٥٠١٢٣٤٥٦٧"}, ""},
		{"two at signs", models.ContactInfo{Name: "S", Email: "s@@firm.ae", Phone: "0501234567"}, "email"},
		{"empty local", models.ContactInfo{Name: "S", Email: "@firm.ae", Phone: "0501234567"}, "email"},
		{"empty label", models.ContactInfo{Name: "S", Email: "s@firm..ae", Phone: "0501234567"}, "email"},
		{"space in email", models.ContactInfo{Name: "S", Email: "s a@firm.ae", Phone: "0501234567"}, "email"},
		{"short phone", models.ContactInfo{Name: "S", Email: "s@firm.ae", Phone: "12345"}, ""},
		{"phone with extension", models.ContactInfo{Name: "S", Email: "s@firm.ae", Phone: "+971 50 123 4567 ext 2"}, ""},
		{"blank phone", models.ContactInfo{Name: "S", Email: "s@firm.ae", Phone: "  "}, "phone"},
		{"blank name", models.ContactInfo{Name: "   ", Email: "s@firm.ae", Phone: "0501234567"}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateContact(tc.in)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *types.ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Equal(t, tc.field, ve.Field)
			}
		})
	}

	out, err := ValidateContact(models.ContactInfo{Name: " Sara ", Email: " sara@firm.ae ", Phone: "٠٥٠١٢٣٤٥٦٧"})
	assert.NoError(t, err)
	assert.Equal(t, "Sara", out.Name)
	assert.Equal(t, "sara@firm.ae", out.Email)
	assert.Equal(t, "0501234567", out.Phone)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "123456", NormalizeCode("123456"))
	assert.Equal(t, "12345678", NormalizeCode("12 34 56 78"))
	assert.Equal(t, "123456", NormalizeCode(" 123 456\t"))
	assert.Equal(t, "a9b8c7", NormalizeCode("a9b8c7"))
	assert.Equal(t, "120345", NormalizeCode("١٢٠٣٤٥"))
	assert.Equal(t, "12x3456", NormalizeCode("12x3456"))

	assert.True(t, IsCompleteCode("000000"))
	assert.True(t, IsCompleteCode(NormalizeCode("١٢٣ ٤٥٦")))
	assert.False(t, IsCompleteCode("00000"))
	assert.False(t, IsCompleteCode("0000000"))
	assert.False(t, IsCompleteCode("12345a"))
	assert.False(t, IsCompleteCode(NormalizeCode("123456999")))
	assert.False(t, IsCompleteCode(NormalizeCode("12-3456")))
}

func TestLocalizeFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Invalid OTP code", localize(models.Language("fr"), msgInvalidCode))
	assert.Equal(t, "رمز التحقق غير صحيح", localize(models.LangArabic, msgInvalidCode))
}
