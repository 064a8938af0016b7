package models

import "strings"

type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
)

// ParseLanguage maps a request value to a supported language, defaulting to English.
func ParseLanguage(s string) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "ar") {
		return LangArabic
	}
	return LangEnglish
}
