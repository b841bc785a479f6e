// Package anomaly implements the detection core: baseline computation,
// feature extraction, and the three anomaly detectors. Everything here
// is a pure function over immutable inputs, with no I/O and no clock,
// so a run is fully determined by its input snapshot.
package anomaly

import (
	"math"
	"strconv"
	"strings"
)

// Percentile returns the continuous (linear-interpolation) percentile
// of a sorted sample, the estimator behind SQL's PERCENTILE_CONT.
// With h = p*(n-1), the result interpolates between the order
// statistics at floor(h) and floor(h)+1.
//
// sorted must be ascending and non-empty; p outside [0, 1] is clamped.
// Panics on an empty sample: callers own the non-empty guarantee.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		panic("anomaly: Percentile of empty sample")
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// fnum renders a float compactly for detail messages: two decimals,
// with trailing zeros (and a bare point) trimmed, so whole values print
// as integers (23, not 23.00).
func fnum(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
