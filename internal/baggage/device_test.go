package baggage

import "testing"

func TestIsHandheldScanner(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		want      bool
	}{
		{"honeywell unit", "Mozilla/5.0 (Linux; Android 9; CT60) Honeywell", true},
		{"ct40 unit", "android 10 ct40 build", true},
		{"intermec unit", "Intermec CK65", true},
		{"case insensitive", "HONEYWELL", true},
		{"phone", "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0)", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHandheldScanner(tt.signature); got != tt.want {
				t.Errorf("IsHandheldScanner(%q) = %v, want %v", tt.signature, got, tt.want)
			}
		})
	}
}

func TestMatchesScannerSignature(t *testing.T) {
	// Custom pattern overrides the default.
	if !MatchesScannerSignature("zebra tc52", `zebra`) {
		t.Error("custom pattern did not match")
	}
	if MatchesScannerSignature("honeywell ct60", `zebra`) {
		t.Error("custom pattern matched a default-only signature")
	}

	// Invalid and empty patterns fall back to the default.
	if !MatchesScannerSignature("honeywell ct60", `([`) {
		t.Error("invalid pattern did not fall back to the default")
	}
	if !MatchesScannerSignature("honeywell ct60", "") {
		t.Error("empty pattern did not fall back to the default")
	}
}
