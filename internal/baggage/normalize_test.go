package baggage

import "testing"

func TestExtractDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain digits", "4412345678901", "4412345678901"},
		{"digits with letters", "AB1234CD5678", "12345678"},
		{"separated runs", "12-34 56/78", "12345678"},
		{"no digits", "FLIGHT", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDigits(tt.in); got != tt.want {
				t.Errorf("ExtractDigits(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"13 digit tag", "4412345678901", "4412345678901"},
		{"10 digit tag", "0012345678", "0012345678"},
		{"13 digits with noise", "M-4412345678901", "4412345678901"},
		{"too short", "123456", ""},
		{"too long", "44123456789012", ""},
		{"11 digits", "44123456789", ""},
		{"no digits", "BAGGAGE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.in); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Normalization is idempotent: a canonical code normalizes to itself.
func TestNormalizeCodeIdempotent(t *testing.T) {
	inputs := []string{"4412345678901", "0012345678", "M-4412345678901", "12 34 56 78 90"}
	for _, in := range inputs {
		first := NormalizeCode(in)
		if first == "" {
			continue
		}
		if second := NormalizeCode(first); second != first {
			t.Errorf("NormalizeCode(%q) = %q, but NormalizeCode of that = %q", in, first, second)
		}
	}
}

func TestCanonicalCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"canonical wins", "44-12345678901", "4412345678901"},
		{"digits fallback", "ABC123456", "123456"},
		{"raw fallback", "NOREAD", "NOREAD"},
		{"trims whitespace", "  NOREAD  ", "NOREAD"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalCode(tt.in); got != tt.want {
				t.Errorf("CanonicalCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
