package billing

import (
	"fmt"
	"strconv"
	"strings"
)

// Booking references group one main payment with its installment rows.
// The main reference is "BK" plus a number zero-padded to three digits
// (unbounded past 999); installments append "_P1", "_P2", ...
const (
	refPrefix     = "BK"
	partialMarker = "_P"
)

func FormatBookingRef(n int) string {
	return fmt.Sprintf("%s%03d", refPrefix, n)
}

// ParseBookingRefNumber extracts the numeric part of a main booking
// reference. Returns false for installment references and anything that is
// not BK-prefixed.
func ParseBookingRefNumber(ref string) (int, bool) {
	if !strings.HasPrefix(ref, refPrefix) || strings.Contains(ref, partialMarker) {
		return 0, false
	}
	n, err := strconv.Atoi(ref[len(refPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MainRef strips an installment suffix, returning the booking's main
// reference unchanged if there is none.
func MainRef(ref string) string {
	if i := strings.Index(ref, partialMarker); i >= 0 {
		return ref[:i]
	}
	return ref
}

func PartialRef(mainRef string, seq int) string {
	return fmt.Sprintf("%s%s%d", mainRef, partialMarker, seq)
}

func IsPartialRef(ref string) bool {
	return strings.Contains(ref, partialMarker)
}
