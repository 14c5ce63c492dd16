package core

import (
	"math"
	"sort"
	"time"
)

// Frame is the canonical columnar table one normalized feed produces: a
// day-granular date column plus named numeric and label columns, all of equal
// length. A Frame is treated as immutable once built; slicing operations
// return copies and a refresh replaces the whole Frame, so in-flight
// aggregations are never affected by new data.
type Frame struct {
	Dates   []time.Time
	Numeric map[string][]float64
	Label   map[string][]string
}

// NewFrame returns an empty Frame with no columns.
func NewFrame() *Frame {
	return &Frame{
		Numeric: map[string][]float64{},
		Label:   map[string][]string{},
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Dates)
}

// IsEmpty reports whether the frame has no rows.
func (f *Frame) IsEmpty() bool { return f.Len() == 0 }

// NumericColumns returns the numeric column names in sorted order.
func (f *Frame) NumericColumns() []string {
	if f == nil {
		return nil
	}
	cols := make([]string, 0, len(f.Numeric))
	for c := range f.Numeric {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// DateRange returns the min and max dates present. ok is false for an empty
// frame.
func (f *Frame) DateRange() (min, max time.Time, ok bool) {
	if f.IsEmpty() {
		return time.Time{}, time.Time{}, false
	}
	min, max = f.Dates[0], f.Dates[0]
	for _, d := range f.Dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, true
}

// Slice returns a new Frame holding copies of the rows whose date falls
// inside w (inclusive). The receiver is not modified.
func (f *Frame) Slice(w Window) *Frame {
	out := NewFrame()
	if f == nil {
		return out
	}
	var idx []int
	for i, d := range f.Dates {
		if w.Contains(d) {
			idx = append(idx, i)
		}
	}
	out.Dates = make([]time.Time, len(idx))
	for j, i := range idx {
		out.Dates[j] = f.Dates[i]
	}
	for name, col := range f.Numeric {
		dst := make([]float64, len(idx))
		for j, i := range idx {
			dst[j] = col[i]
		}
		out.Numeric[name] = dst
	}
	for name, col := range f.Label {
		dst := make([]string, len(idx))
		for j, i := range idx {
			dst[j] = col[i]
		}
		out.Label[name] = dst
	}
	return out
}

// AppendRow adds one row. Missing numeric cells default to 0, missing label
// cells to "". New columns appearing mid-build are backfilled so all columns
// stay rectangular. Non-finite numeric values are coerced to 0 on the way in,
// which keeps the "all measures are finite" invariant local to this one entry
// point.
func (f *Frame) AppendRow(date time.Time, numeric map[string]float64, label map[string]string) {
	n := len(f.Dates)
	f.Dates = append(f.Dates, Day(date))
	for name, v := range numeric {
		col, ok := f.Numeric[name]
		if !ok {
			col = make([]float64, n)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		f.Numeric[name] = append(col, v)
	}
	for name := range f.Numeric {
		if len(f.Numeric[name]) == n {
			f.Numeric[name] = append(f.Numeric[name], 0)
		}
	}
	for name, v := range label {
		col, ok := f.Label[name]
		if !ok {
			col = make([]string, n)
		}
		f.Label[name] = append(col, v)
	}
	for name := range f.Label {
		if len(f.Label[name]) == n {
			f.Label[name] = append(f.Label[name], "")
		}
	}
}

// Day truncates a timestamp to day granularity in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
