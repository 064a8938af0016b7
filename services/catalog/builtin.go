package catalog

import "lexcora-checkout-api/models"

var builtinTiers = map[models.Language][]models.PricingTier{
	models.LangEnglish: {
		{
			Key:           "starter",
			Name:          "Starter Package",
			Stars:         2,
			PriceMonthly:  "199",
			PriceAnnually: "1,990",
			PeriodLabel:   "AED / user",
			MinUsers:      "Minimum: 2 Users",
			Features: []string{
				"Case and File Management (Unlimited)",
				"Client and Opponent Management",
				"Session Tracking + Automatic Reminders",
				"Consultation and Meeting Management",
				"Basic Invoicing + Basic Financial Reports",
				"Bilingual Interface (Arabic/English)",
				"Basic Permissions System",
				"20 GB Cloud Storage/user",
				"Technical Support (Email)",
				"Remote Training Session",
			},
			CTA: "Start Free Trial",
		},
		{
			Key:           "professional",
			Name:          "Professional Package",
			Stars:         3,
			PriceMonthly:  "349",
			PriceAnnually: "3,490",
			PeriodLabel:   "AED / user",
			MinUsers:      "Minimum: 4 Users",
			Highlight:     true,
			Features: []string{
				"All Features from STARTER",
				"AI-powered intelligent legal assistant (200 queries)",
				"Advanced chart of accounts + reports",
				"Full HR management",
				"Asset management",
				"Team productivity monitoring",
				"Advanced permissions system",
				"100 GB storage/user",
				"Basic API (M365 / Google Workspace)",
				"Technical support (WhatsApp + email)",
				"Two remote training sessions",
			},
			CTA: "Go Professional",
		},
		{
			Key:           "enterprise",
			Name:          "Enterprise Package",
			Stars:         4,
			PriceMonthly:  "500+",
			PriceAnnually: "Custom",
			PeriodLabel:   "Starting from AED / user",
			MinUsers:      "Minimum: 20 Users",
			Features: []string{
				"All Features from PROFESSIONAL",
				"Unlimited AI-powered intelligent assistant",
				"Unlimited storage",
				"Full API (WhatsApp Business + Google + M365)",
				"Custom reports on demand",
				"White-label (Logo & Identity)",
				"Customized Account Manager",
				"24/7 Technical Support",
				"Alerts for Assets/Contracts",
				"On-site Training (4 Sessions)",
				"Comprehensive Activity Log Tracking",
			},
			CTA: "Contact Sales",
		},
	},
	models.LangArabic: {
		{
			Key:           "starter",
			Name:          "باقة البداية",
			Stars:         2,
			PriceMonthly:  "١٩٩",
			PriceAnnually: "١,٩٩٠",
			PeriodLabel:   "درهم / مستخدم",
			MinUsers:      "الحد الأدنى: ٢ مستخدمين",
			Features: []string{
				"إدارة القضايا والملفات (غير محدود)",
				"إدارة العملاء والخصوم",
				"تتبع الجلسات + تذكيرات تلقائية",
				"إدارة الاستشارات والاجتماعات",
				"فواتير أساسية + تقارير مالية أساسية",
				"واجهة ثنائية اللغة (عربي/إنجليزي)",
				"نظام أذونات أساسي",
				"٢٠ جيجابايت تخزين سحابي/مستخدم",
				"دعم فني (بريد إلكتروني)",
				"جلسة تدريب عن بعد",
			},
			CTA: "ابدأ تجربة مجانية",
		},
		{
			Key:           "professional",
			Name:          "الباقة الاحترافية",
			Stars:         3,
			PriceMonthly:  "٣٤٩",
			PriceAnnually: "٣,٤٩٠",
			PeriodLabel:   "درهم / مستخدم",
			MinUsers:      "الحد الأدنى: ٤ مستخدمين",
			Highlight:     true,
			Features: []string{
				"كل ميزات الباقة الأساسية",
				"مساعد قانوني ذكي (٢٠٠ استعلام)",
				"دليل حسابات متقدم + تقارير",
				"إدارة موارد بشرية كاملة",
				"إدارة الأصول",
				"مراقبة إنتاجية الفريق",
				"نظام أذونات متقدم",
				"١٠٠ جيجابايت تخزين/مستخدم",
				"API أساسي (M365 / Google Workspace)",
				"دعم فني (واتساب + بريد إلكتروني)",
				"جلستي تدريب عن بعد",
			},
			CTA: "اختر الاحترافية",
		},
		{
			Key:           "enterprise",
			Name:          "باقة المؤسسات",
			Stars:         4,
			PriceMonthly:  "٥٠٠+",
			PriceAnnually: "مخصص",
			PeriodLabel:   "يبدأ من درهم / مستخدم",
			MinUsers:      "الحد الأدنى: ٢٠ مستخدم",
			Features: []string{
				"كل ميزات الباقة الاحترافية",
				"مساعد ذكي غير محدود",
				"تخزين غير محدود",
				"API كامل (WhatsApp Business + Google + M365)",
				"تقارير مخصصة عند الطلب",
				"هوية خاصة (الشعار والهوية)",
				"مدير حساب مخصص",
				"دعم فني ٢٤/٧",
				"تنبيهات للأصول/العقود",
				"تدريب في الموقع (٤ جلسات)",
				"تتبع سجل نشاط شامل",
			},
			CTA: "اتصل بالمبيعات",
		},
	},
}
