package core

import (
	"fmt"
	"time"
)

// Window is an inclusive (start, end) date range at day granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// Preset names a date range evaluated relative to "today".
type Preset string

const (
	PresetToday     Preset = "today"
	PresetYesterday Preset = "yesterday"
	PresetThisWeek  Preset = "this_week"
	PresetLastWeek  Preset = "last_week"
	PresetThisMonth Preset = "this_month"
	PresetLastMonth Preset = "last_month"
	PresetYearToDate Preset = "year_to_date"
)

// NewWindow builds a window from two dates, swapping them if inverted so the
// invariant Start ≤ End always holds.
func NewWindow(start, end time.Time) Window {
	s, e := Day(start), Day(end)
	if s.After(e) {
		s, e = e, s
	}
	return Window{Start: s, End: e}
}

// Days returns the window span in days, counting both endpoints.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether d (truncated to a day) falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Clamp forces both bounds into [min, max]. If the data range itself is
// inverted or collapsed the result degrades to the single day max, so callers
// always get a valid window back.
func (w Window) Clamp(min, max time.Time) Window {
	min, max = Day(min), Day(max)
	if min.After(max) {
		return Window{Start: max, End: max}
	}
	s, e := w.Start, w.End
	if s.Before(min) {
		s = min
	}
	if s.After(max) {
		s = max
	}
	if e.Before(min) {
		e = min
	}
	if e.After(max) {
		e = max
	}
	if s.After(e) {
		s = e
	}
	return Window{Start: s, End: e}
}

// Previous returns the immediately preceding window of identical span:
// a 1-day window compares against the prior day, a 30-day window against the
// prior 30 days, regardless of calendar month boundaries.
func Previous(w Window) Window {
	span := w.Days()
	end := w.Start.AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(span - 1))
	return Window{Start: start, End: end}
}

// ResolvePreset translates a named preset into a window relative to today.
func ResolvePreset(p Preset, today time.Time) (Window, error) {
	t := Day(today)
	switch p {
	case PresetToday:
		return Window{Start: t, End: t}, nil
	case PresetYesterday:
		y := t.AddDate(0, 0, -1)
		return Window{Start: y, End: y}, nil
	case PresetThisWeek:
		return Window{Start: WeekStart(t), End: t}, nil
	case PresetLastWeek:
		ws := WeekStart(t).AddDate(0, 0, -7)
		return Window{Start: ws, End: ws.AddDate(0, 0, 6)}, nil
	case PresetThisMonth:
		return Window{Start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), End: t}, nil
	case PresetLastMonth:
		firstOfThis := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := firstOfThis.AddDate(0, 0, -1)
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: end}, nil
	case PresetYearToDate:
		return Window{Start: time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC), End: t}, nil
	default:
		return Window{}, fmt.Errorf("unknown preset %q", p)
	}
}
