package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName guesses a human-readable name from the local part of an
// email address ("jane.doe@corp.com" -> "Jane Doe"). Used when a resume
// yields an email but no usable name line. Returns "" when nothing usable
// can be derived.
func DeriveDisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if !isAlpha(p) {
			continue
		}
		words = append(words, capitalize(p))
	}
	return strings.Join(words, " ")
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
