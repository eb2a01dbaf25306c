// Package spacing parses drone spacing inputs and measures distances along a
// formation axis.
//
// A spacing input is a comma-separated list of distances in meters, for
// example "1.5,1.5,3". The list is treated as a repeating pattern: crossing
// gap k uses the distance at index k mod len(seq).
package spacing

import (
	"math"
	"strconv"
	"strings"
)

// Parse splits raw on commas and returns every token that parses as a finite
// positive number. Invalid tokens are dropped; an empty result means the
// spacing has not been configured yet.
func Parse(raw string) []float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var seq []float64
	for _, tok := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		seq = append(seq, v)
	}
	return seq
}

// CumulativeDistance returns the distance covered by crossing steps gaps,
// cycling through seq. An empty seq uses fallback for every gap.
func CumulativeDistance(steps int, seq []float64, fallback float64) float64 {
	if steps <= 0 {
		return 0
	}
	switch len(seq) {
	case 0:
		return float64(steps) * fallback
	case 1:
		return float64(steps) * seq[0]
	}
	var sum float64
	for k := range steps {
		sum += seq[k%len(seq)]
	}
	return sum
}

// Offsets returns the distance of each of n positions from the first one.
func Offsets(n int, seq []float64, fallback float64) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		gap := fallback
		if len(seq) > 0 {
			gap = seq[(i-1)%len(seq)]
		}
		out[i] = out[i-1] + gap
	}
	return out
}

// FormatMeters renders v without decimals when it is integral and with one
// decimal place otherwise.
func FormatMeters(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Describe returns the label shown next to the formation for a raw spacing
// input: the trimmed input with a meter suffix, or "—" when nothing valid
// was entered.
func Describe(raw string) string {
	if len(Parse(raw)) == 0 {
		return "—"
	}
	return strings.TrimSpace(raw) + "m"
}
