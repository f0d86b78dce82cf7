package report

import (
	"math"
	"strconv"
)

// FormatPercent renders a value that is already expressed in
// percent as a fixed two-decimal string with a trailing % sign.
// Rounding is half-up on the second decimal: the tie is resolved
// upward before formatting so output never depends on the
// half-even behavior of the formatter.
func FormatPercent(v float64) string {
	rounded := math.Floor(v*100+0.5) / 100
	return strconv.FormatFloat(rounded, 'f', 2, 64) + "%"
}
