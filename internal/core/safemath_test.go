package core

import (
	"math"
	"strings"
	"testing"
)

func TestSafeDivide(t *testing.T) {
	cases := []struct {
		num, den, def, scale float64
		want                 float64
	}{
		{210, 300, 0, 100, 70},
		{1, 3, 0, 100, 33.33},
		{5, 0, 0, 100, 0},    // zero denominator
		{5, 0, -1, 100, -1},  // caller-supplied default
		{0, 100, 0, 100, 0},
		{math.NaN(), 10, 0, 100, 0},
		{10, math.NaN(), 0, 100, 0},
		{math.MaxFloat64, 0.5, 0, 100, 0}, // scale-induced overflow
	}
	for i, tc := range cases {
		got := SafeDivide(tc.num, tc.den, tc.def, tc.scale)
		if got != tc.want {
			t.Fatalf("case %d: SafeDivide(%v, %v, %v, %v) = %v, want %v",
				i, tc.num, tc.den, tc.def, tc.scale, got, tc.want)
		}
	}
}

func TestSafeDivideNeverNonFinite(t *testing.T) {
	inputs := []float64{0, 1, -1, math.NaN(), math.Inf(1), math.Inf(-1), math.MaxFloat64}
	for _, n := range inputs {
		for _, d := range inputs {
			got := SafeDivide(n, d, 0, 100)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("SafeDivide(%v, %v) returned non-finite %v", n, d, got)
			}
		}
	}
}

func TestFormattersNeverRenderNaN(t *testing.T) {
	inputs := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, v := range inputs {
		for _, got := range []string{FormatWon(v), FormatCount(v), FormatPercent(v)} {
			if strings.Contains(got, "NaN") || strings.Contains(got, "Inf") {
				t.Fatalf("formatter leaked non-finite output %q for %v", got, v)
			}
		}
	}
	if got := FormatWon(math.NaN()); got != "₩0" {
		t.Fatalf("FormatWon(NaN) = %q, want ₩0", got)
	}
	if got := FormatPercent(math.Inf(1)); got != "0.0%" {
		t.Fatalf("FormatPercent(+Inf) = %q, want 0.0%%", got)
	}
}

func TestFormatWonUnits(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{150000000, "₩1.5억"},
		{25000, "₩3만"}, // 2.5만 rounds to 3만
		{1234, "₩1,234"},
		{0, "₩0"},
	}
	for i, tc := range cases {
		if got := FormatWon(tc.in); got != tc.want {
			t.Fatalf("case %d: FormatWon(%v) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Fatalf("FormatCount = %q", got)
	}
	if got := FormatCount(-4200); got != "-4,200" {
		t.Fatalf("FormatCount negative = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(70.04); got != "70.0%" {
		t.Fatalf("FormatPercent = %q", got)
	}
	if got := FormatPercent(-3.25); got != "-3.3%" {
		t.Fatalf("FormatPercent = %q, want -3.3%%", got)
	}
}
