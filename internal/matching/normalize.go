package matching

import (
	"strings"
	"unicode"
)

// NormalizeName lowercases and trims a display name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizePhone10 reduces a phone number to its comparison key: strip
// whitespace, hyphens and plus signs, strip a leading country-code
// prefix, and keep the last 10 digits. Returns "" when fewer than 10
// digits remain, since a shorter string cannot serve as a reliable key.
func NormalizePhone10(phone, countryCode string) string {
	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if countryCode != "" && len(s) > 10 && strings.HasPrefix(s, countryCode) {
		s = s[len(countryCode):]
	}
	if len(s) > 10 {
		s = s[len(s)-10:]
	}
	if len(s) < 10 {
		return ""
	}
	return s
}

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
