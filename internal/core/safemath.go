// Package core implements the period-comparison aggregation engine: guarded
// arithmetic, the canonical in-memory table, date-window resolution, summary
// aggregation and Monday-aligned weekly rollups.
//
// Source feeds legitimately contain zero-revenue days and partially filled
// rows, so every ratio in the system goes through SafeDivide and every
// formatter renders a canonical zero for non-finite input.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SafeDivide returns (num/den)*scale rounded to two decimals. It returns def
// when den is zero, when either operand is NaN, or when the scaled result is
// non-finite. This is the only sanctioned way to compute ratio metrics.
func SafeDivide(num, den, def, scale float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return def
	}
	result := (num / den) * scale
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return def
	}
	return math.Round(result*100) / 100
}

// Round1 rounds to one decimal place. Used for percentage-point deltas.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}

// FormatWon renders a won amount with Korean unit grouping: 억 for 1e8 and
// above, 만 for 1e4 and above. Non-finite input renders as ₩0.
func FormatWon(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "₩0"
	}
	av := math.Abs(v)
	switch {
	case av >= 1e8:
		return fmt.Sprintf("₩%.1f억", v/1e8)
	case av >= 1e4:
		return "₩" + groupThousands(math.Round(v/1e4)) + "만"
	default:
		return "₩" + groupThousands(math.Round(v))
	}
}

// FormatCount renders an integer count with thousands separators.
// Non-finite input renders as 0.
func FormatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return groupThousands(math.Round(v))
}

// FormatPercent renders a percentage with one decimal place.
// Non-finite input renders as 0.0%.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0%"
	}
	return strconv.FormatFloat(Round1(v), 'f', 1, 64) + "%"
}

func groupThousands(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)
	if len(s) > 3 {
		var b strings.Builder
		pre := len(s) % 3
		if pre > 0 {
			b.WriteString(s[:pre])
		}
		for i := pre; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}
