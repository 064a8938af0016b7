package checkout

import "lexcora-checkout-api/models"

type msgKey int

const (
	msgNameRequired msgKey = iota
	msgInvalidEmail
	msgInvalidPhone
	msgCodeFormat
	msgInvalidCode
	msgOTPSendFailed
	msgNetwork
	msgPaymentFailed
	msgPaymentCancelled
	msgPaymentMethodRequired
	msgTierUnavailable
	msgPaymentInProgress
)

var messages = map[models.Language]map[msgKey]string{
	models.LangEnglish: {
		msgNameRequired:          "Please enter your full name.",
		msgInvalidEmail:          "Please enter a valid email address.",
		msgInvalidPhone:          "Please enter a valid phone number.",
		msgCodeFormat:            "Please enter the 6-digit code.",
		msgInvalidCode:           "Invalid OTP code",
		msgOTPSendFailed:         "Failed to send OTP. Please try again.",
		msgNetwork:               "Network error. Please check your connection and try again.",
		msgPaymentFailed:         "Payment failed. Please try again.",
		msgPaymentCancelled:      "Payment was cancelled. You can try again when ready.",
		msgPaymentMethodRequired: "Please enter your card details.",
		msgTierUnavailable:       "This plan cannot be purchased online. Please contact sales.",
		msgPaymentInProgress:     "A payment for this checkout is already being processed.",
	},
	models.LangArabic: {
		msgNameRequired:          "يرجى إدخال الاسم الكامل.",
		msgInvalidEmail:          "يرجى إدخال بريد إلكتروني صحيح.",
		msgInvalidPhone:          "يرجى إدخال رقم هاتف صحيح.",
		msgCodeFormat:            "يرجى إدخال الرمز المكون من ٦ أرقام.",
		msgInvalidCode:           "رمز التحقق غير صحيح",
		msgOTPSendFailed:         "فشل إرسال رمز التحقق. يرجى المحاولة مرة أخرى.",
		msgNetwork:               "خطأ في الشبكة. يرجى التحقق من الاتصال والمحاولة مرة أخرى.",
		msgPaymentFailed:         "فشلت عملية الدفع. يرجى المحاولة مرة أخرى.",
		msgPaymentCancelled:      "تم إلغاء الدفع. يمكنك المحاولة مرة أخرى عند الاستعداد.",
		msgPaymentMethodRequired: "يرجى إدخال بيانات البطاقة.",
		msgTierUnavailable:       "لا يمكن شراء هذه الباقة عبر الإنترنت. يرجى التواصل مع المبيعات.",
		msgPaymentInProgress:     "يتم حالياً معالجة عملية دفع لهذا الطلب.",
	},
}

func localize(lang models.Language, key msgKey) string {
	if m, ok := messages[lang]; ok {
		return m[key]
	}
	return messages[models.LangEnglish][key]
}
