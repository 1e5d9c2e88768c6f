// Package phone validates numbers in E.164 form for the SOS and OTP
// paths. Profile phone fields elsewhere stay free-text.
package phone

import "strings"

// IsE164 reports whether s looks like +<countrycode><subscriber>: a
// leading '+', then 8 to 15 digits, the first of which is non-zero.
func IsE164(s string) bool {
	if !strings.HasPrefix(s, "+") {
		return false
	}
	digits := s[1:]
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	if digits[0] == '0' {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize strips spaces, dashes and parentheses so user-entered
// numbers like "+291 7 123-4567" can pass validation.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '-', '(', ')', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
