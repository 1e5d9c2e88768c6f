package phone

import "testing"

func TestIsE164(t *testing.T) {
	valid := []string{"+2917123456", "+14155552671", "+442071838750", "+861012345678"}
	for _, s := range valid {
		if !IsE164(s) {
			t.Errorf("IsE164(%q) = false, want true", s)
		}
	}
	invalid := []string{
		"",
		"2917123456",     // no plus
		"+0123456789",    // leading zero country code
		"+1234567",       // too short
		"+1234567890123456", // too long
		"+29171a3456",    // non-digit
		"+",              // bare plus
	}
	for _, s := range invalid {
		if IsE164(s) {
			t.Errorf("IsE164(%q) = true, want false", s)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"+291 7 123-4567":  "+29171234567",
		"+1 (415) 555.2671": "+14155552671",
		"+2917123456":      "+2917123456",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
