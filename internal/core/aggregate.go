package core

// Summary maps each numeric measure to its sum over one window. Every
// declared numeric column is always present, so a window that selected zero
// rows still yields 0 for each measure rather than a missing key.
type Summary map[string]float64

// Get returns the summed value for a measure, 0 when absent.
func (s Summary) Get(measure string) float64 { return s[measure] }

// Aggregate masks the frame by the window and sums every numeric column.
// It never mutates the frame; calling it twice over the same inputs yields
// identical results.
func Aggregate(f *Frame, w Window) Summary {
	out := Summary{}
	if f == nil {
		return out
	}
	for _, c := range f.NumericColumns() {
		out[c] = 0
	}
	for i, d := range f.Dates {
		if !w.Contains(d) {
			continue
		}
		for name, col := range f.Numeric {
			out[name] += col[i]
		}
	}
	return out
}

// Comparison holds the summaries for a window and its equal-length
// predecessor.
type Comparison struct {
	Window   Window
	Previous Window
	Current  Summary
	Prior    Summary
}

// Compare aggregates the frame over w and over Previous(w).
func Compare(f *Frame, w Window) Comparison {
	prev := Previous(w)
	return Comparison{
		Window:   w,
		Previous: prev,
		Current:  Aggregate(f, w),
		Prior:    Aggregate(f, prev),
	}
}

// Delta returns the percent change of a summed measure against the prior
// period. A zero prior baseline yields 0, not +Inf: "no prior baseline" is
// treated as "no change".
func (c Comparison) Delta(measure string) float64 {
	cur := c.Current.Get(measure)
	prev := c.Prior.Get(measure)
	return SafeDivide(cur-prev, prev, 0, 100)
}

// RateDelta returns the difference in percentage points between the current
// and prior period rates of numerator/denominator, rounded to one decimal.
// This is additive (percentage points), not a percent-of-percent.
func (c Comparison) RateDelta(numerator, denominator string) float64 {
	currRate := SafeDivide(c.Current.Get(numerator), c.Current.Get(denominator), 0, 100)
	prevRate := SafeDivide(c.Prior.Get(numerator), c.Prior.Get(denominator), 0, 100)
	return Round1(currRate - prevRate)
}
