package baggage

import (
	"regexp"
	"strings"
)

// digitRunRegex matches one or more consecutive digits.
var digitRunRegex = regexp.MustCompile(`\d+`)

// ExtractDigits returns all digit runs in s concatenated in order.
// Returns "" when s contains no digits.
func ExtractDigits(s string) string {
	runs := digitRunRegex.FindAllString(s, -1)
	if runs == nil {
		return ""
	}
	return strings.Join(runs, "")
}

// NormalizeCode extracts the digits of s and returns them when they form a
// canonical baggage code (exactly 10 or 13 digits). Any other length returns "".
func NormalizeCode(s string) string {
	d := ExtractDigits(s)
	if IsCanonicalLength(d) {
		return d
	}
	return ""
}

// CanonicalCode resolves a raw scan to its recording identity:
// the canonical code if normalizable, else the raw digit string,
// else the trimmed raw text. First non-empty wins.
func CanonicalCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if code := NormalizeCode(raw); code != "" {
		return code
	}
	if digits := ExtractDigits(raw); digits != "" {
		return digits
	}
	return raw
}

// IsCanonicalLength reports whether s has a canonical baggage code length.
func IsCanonicalLength(s string) bool {
	return len(s) == 10 || len(s) == 13
}
