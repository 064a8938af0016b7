package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lexcora-checkout-api/models"
)

func TestRenderOTPEmail(t *testing.T) {
	subject, body := RenderOTPEmail("Ahmed <script>", "123456", models.LangEnglish)

	assert.Equal(t, "Your Lexcora verification code", subject)
	assert.Contains(t, body, `dir="ltr"`)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "Ahmed &lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

func TestRenderOTPEmailArabic(t *testing.T) {
	subject, body := RenderOTPEmail("أحمد", "654321", models.LangArabic)

	assert.Equal(t, "رمز التحقق الخاص بك من ليكسورا", subject)
	assert.Contains(t, body, `dir="rtl"`)
	assert.Contains(t, body, `lang="ar"`)
	assert.Contains(t, body, "654321")
	assert.Contains(t, body, "مرحباً أحمد")
}

func TestRenderReceiptEmailSkipsEmptyRows(t *testing.T) {
	_, body := RenderReceiptEmail(Receipt{
		Name:     "Sara",
		TierName: "Professional",
		Cycle:    models.BillingAnnually,
		Amount:   "AED 3,490.00",
		Language: models.LangEnglish,
	})

	assert.Contains(t, body, "Professional")
	assert.Contains(t, body, "Annually")
	assert.Contains(t, body, "AED 3,490.00")
	assert.NotContains(t, body, "Next renewal")
}

func TestBuildMessageEncodesArabicSubject(t *testing.T) {
	msg := buildMessage("no-reply@lexcora.ae", "a@b.ae", "تم تفعيل اشتراكك", "<p>x</p>")

	assert.True(t, strings.HasPrefix(msg, "From: Lexcora <no-reply@lexcora.ae>\r\n"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>x</p>"))
}

func TestSendSalesNotificationWithoutAddress(t *testing.T) {
	s := NewSMTPService(SMTPConfig{})
	assert.NoError(t, s.SendSalesNotification("New lead", "body"))
}
