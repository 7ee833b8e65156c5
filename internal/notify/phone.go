// internal/notify/phone.go
package notify

import (
	"regexp"
	"strings"

	"jobmatch-notifier/internal/models"
)

// e164Pattern accepts a "+" followed by 10 to 15 digits.
var e164Pattern = regexp.MustCompile(`^\+\d{10,15}$`)

// FormatPhoneNumber normalizes a raw phone string: strips everything
// except digits and a leading "+", and prefixes defaultCountryCode when
// no country code is present. Returns "" for empty input.
func FormatPhoneNumber(raw, defaultCountryCode string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for i, ch := range raw {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		} else if ch == '+' && i == 0 {
			b.WriteRune(ch)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = defaultCountryCode + cleaned
	}
	return cleaned
}

// ValidatePhoneNumber reports whether the number is in E.164 form.
func ValidatePhoneNumber(number string) bool {
	return e164Pattern.MatchString(number)
}

// SelectPhone picks the first usable phone for a candidate in priority
// order (mobile, work, home), normalized with the default country code.
// Returns "" when no field yields a valid number.
func SelectPhone(c models.Candidate, defaultCountryCode string) string {
	for _, raw := range []string{c.MobilePhone, c.WorkPhone, c.HomePhone} {
		formatted := FormatPhoneNumber(raw, defaultCountryCode)
		if formatted != "" && ValidatePhoneNumber(formatted) {
			return formatted
		}
	}
	return ""
}
