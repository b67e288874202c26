package model

import "strings"

type Language string

const (
	LanguageEnglish Language = "1"
	LanguageSpanish Language = "2"
)

func (l Language) String() string { return string(l) }

// Locale is the speech synthesis locale for the language.
func (l Language) Locale() string {
	if l == LanguageSpanish {
		return "es-ES"
	}
	return "en-US"
}

// Name is the human readable name used in logs.
func (l Language) Name() string {
	if l == LanguageSpanish {
		return "Spanish"
	}
	return "English"
}

// ParseLanguageDigit maps a level-1 menu digit to a language.
// Returns (value, true) only for "1" and "2".
func ParseLanguageDigit(d string) (Language, bool) {
	switch d {
	case "1":
		return LanguageEnglish, true
	case "2":
		return LanguageSpanish, true
	default:
		return "", false
	}
}

// LanguageFromQuery reads the lang query value carried on level-2 action URLs.
// Empty means English; any other value than "1" selects Spanish.
func LanguageFromQuery(raw string) Language {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "1" {
		return LanguageEnglish
	}
	return LanguageSpanish
}
