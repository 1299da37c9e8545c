package baggage

import (
	"regexp"
	"strings"
)

// DefaultScannerSignaturePattern matches device identity strings of handheld
// units that emit scans as synthetic keyboard input.
const DefaultScannerSignaturePattern = `ct60|ct40|ct45|honeywell|intermec`

var defaultScannerRegex = regexp.MustCompile(DefaultScannerSignaturePattern)

// IsHandheldScanner reports whether a device identity string looks like a
// recognized handheld-scanner unit. Hardware-scanner input defaults on for
// these devices.
func IsHandheldScanner(signature string) bool {
	return defaultScannerRegex.MatchString(strings.ToLower(signature))
}

// MatchesScannerSignature is IsHandheldScanner with a caller-supplied pattern.
// An invalid or empty pattern falls back to the default.
func MatchesScannerSignature(signature, pattern string) bool {
	if pattern == "" {
		return IsHandheldScanner(signature)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return IsHandheldScanner(signature)
	}
	return re.MatchString(strings.ToLower(signature))
}
