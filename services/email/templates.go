package email

import (
	"fmt"
	"html"
	"mime"
	"strings"

	"lexcora-checkout-api/models"
)

const layoutTemplate = `<!DOCTYPE html>
<html lang="%s" dir="%s">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; background-color: #f5f3ee; font-family: 'Inter', Tahoma, Arial, sans-serif;">
    <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%%" style="background-color: #f5f3ee;">
        <tr>
            <td align="center" style="padding: 40px 20px;">
                <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="max-width: 600px; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background-color: #0f2a44; padding: 28px 20px; text-align: center; color: #c9a55c; font-size: 24px; font-weight: 700; letter-spacing: 2px;">
                            LEXCORA
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px; color: #1f2937; font-size: 16px; line-height: 26px; text-align: %s;">
                            %s
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f9fafb; padding: 20px; text-align: center; color: #6b7280; font-size: 12px;">
                            %s
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

const codeBlockTemplate = `<div style="margin: 32px 0; text-align: center;">
    <span style="display: inline-block; background-color: #f5f3ee; border: 1px solid #c9a55c; border-radius: 8px; padding: 16px 32px; font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #0f2a44; direction: ltr;">%s</span>
</div>`

type copyText struct {
	otpSubject     string
	otpGreeting    string
	otpIntro       string
	otpExpiry      string
	receiptSubject string
	receiptIntro   string
	planLabel      string
	cycleLabel     string
	amountLabel    string
	renewalLabel   string
	referenceLabel string
	monthly        string
	annually       string
	footer         string
}

var copies = map[models.Language]copyText{
	models.LangEnglish: {
		otpSubject:     "Your Lexcora verification code",
		otpGreeting:    "Hello %s,",
		otpIntro:       "Use the code below to verify your email address and continue your Lexcora checkout.",
		otpExpiry:      "The code expires in 10 minutes. If you did not request it, you can ignore this email.",
		receiptSubject: "Your Lexcora subscription is active",
		receiptIntro:   "Thank you for choosing Lexcora. Your payment was received and your subscription is now active.",
		planLabel:      "Plan",
		cycleLabel:     "Billing",
		amountLabel:    "Amount",
		renewalLabel:   "Next renewal",
		referenceLabel: "Reference",
		monthly:        "Monthly",
		annually:       "Annually",
		footer:         "Lexcora Legal ERP · Dubai, United Arab Emirates",
	},
	models.LangArabic: {
		otpSubject:     "رمز التحقق الخاص بك من ليكسورا",
		otpGreeting:    "مرحباً %s،",
		otpIntro:       "استخدم الرمز أدناه للتحقق من بريدك الإلكتروني ومتابعة عملية الشراء.",
		otpExpiry:      "تنتهي صلاحية الرمز خلال ١٠ دقائق. إذا لم تطلب هذا الرمز يمكنك تجاهل هذه الرسالة.",
		receiptSubject: "تم تفعيل اشتراكك في ليكسورا",
		receiptIntro:   "شكراً لاختيارك ليكسورا. تم استلام الدفع وأصبح اشتراكك فعالاً الآن.",
		planLabel:      "الباقة",
		cycleLabel:     "الفوترة",
		amountLabel:    "المبلغ",
		renewalLabel:   "التجديد القادم",
		referenceLabel: "المرجع",
		monthly:        "شهري",
		annually:       "سنوي",
		footer:         "ليكسورا لإدارة المكاتب القانونية · دبي، الإمارات العربية المتحدة",
	},
}

func copyFor(lang models.Language) copyText {
	if c, ok := copies[lang]; ok {
		return c
	}
	return copies[models.LangEnglish]
}

func wrapLayout(lang models.Language, title, content string) string {
	dir, align := "ltr", "left"
	if lang == models.LangArabic {
		dir, align = "rtl", "right"
	}
	return fmt.Sprintf(layoutTemplate, string(lang), dir, html.EscapeString(title), align, content, copyFor(lang).footer)
}

// RenderOTPEmail returns the subject and HTML body of a verification email.
func RenderOTPEmail(name, code string, lang models.Language) (string, string) {
	c := copyFor(lang)
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>\n", fmt.Sprintf(c.otpGreeting, html.EscapeString(name)))
	fmt.Fprintf(&b, "<p>%s</p>\n", c.otpIntro)
	fmt.Fprintf(&b, codeBlockTemplate, html.EscapeString(code))
	fmt.Fprintf(&b, "\n<p style=\"color: #6b7280; font-size: 14px;\">%s</p>", c.otpExpiry)
	return c.otpSubject, wrapLayout(lang, c.otpSubject, b.String())
}

// RenderReceiptEmail returns the subject and HTML body of a payment receipt.
func RenderReceiptEmail(r Receipt) (string, string) {
	c := copyFor(r.Language)
	cycle := c.monthly
	if r.Cycle == models.BillingAnnually {
		cycle = c.annually
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>\n", fmt.Sprintf(c.otpGreeting, html.EscapeString(r.Name)))
	fmt.Fprintf(&b, "<p>%s</p>\n", c.receiptIntro)
	b.WriteString(`<table role="presentation" cellspacing="0" cellpadding="8" border="0" width="100%" style="margin-top: 24px; border-top: 1px solid #e5e7eb;">`)
	rows := [][2]string{
		{c.planLabel, r.TierName},
		{c.cycleLabel, cycle},
		{c.amountLabel, r.Amount},
		{c.renewalLabel, r.RenewalOn},
		{c.referenceLabel, r.Reference},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "\n<tr><td style=\"color: #6b7280;\">%s</td><td><strong>%s</strong></td></tr>",
			row[0], html.EscapeString(row[1]))
	}
	b.WriteString("\n</table>")
	return c.receiptSubject, wrapLayout(r.Language, c.receiptSubject, b.String())
}

// RenderSalesNotification formats an internal notification body from
// ordered label/value pairs.
func RenderSalesNotification(title string, fields [][2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s</h3>\n<ul>", html.EscapeString(title))
	for _, f := range fields {
		fmt.Fprintf(&b, "\n<li><strong>%s:</strong> %s</li>", html.EscapeString(f[0]), html.EscapeString(f[1]))
	}
	b.WriteString("\n</ul>")
	return wrapLayout(models.LangEnglish, title, b.String())
}

// encodeSubject keeps non-ASCII subjects valid in the mail header.
func encodeSubject(subject string) string {
	for _, r := range subject {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}
