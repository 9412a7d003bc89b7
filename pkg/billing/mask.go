package billing

import "strings"

const (
	maskedToken = "****"
	// RedactedCVN is the only value ever persisted for a supplied security
	// code. The raw CVN is dropped as soon as the request is processed.
	RedactedCVN = "***"
)

// MaskCard reduces a card number to its last four digits for display and
// storage. The full number is never persisted or logged.
func MaskCard(raw string) string {
	if raw == "" {
		return raw
	}

	clean := strings.NewReplacer("-", "", " ", "").Replace(raw)
	if len(clean) < 4 {
		return maskedToken
	}

	return "****-****-****-" + clean[len(clean)-4:]
}
