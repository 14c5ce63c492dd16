package core

import (
	"fmt"
	"sort"
	"time"
)

// WeekStart returns the Monday on or before t (ISO week start). Two dates in
// the same Monday–Sunday span always map to the same week start.
func WeekStart(t time.Time) time.Time {
	t = Day(t)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday
	}
	return t.AddDate(0, 0, -(wd - 1))
}

// WeekLabel renders the human-readable span of a week, e.g. "1/1~1/7" for a
// week starting Monday January 1st. Pure function of the week start.
func WeekLabel(weekStart time.Time) string {
	end := weekStart.AddDate(0, 0, 6)
	return fmt.Sprintf("%d/%d~%d/%d", int(weekStart.Month()), weekStart.Day(), int(end.Month()), end.Day())
}

// WeekBucket is one Monday-aligned aggregation group, optionally stratified
// by a label dimension.
type WeekBucket struct {
	Week  time.Time
	Group string
	Sums  Summary
}

// WeeklyRollup groups the frame's rows into Monday-aligned week buckets and
// sums every numeric column per bucket. When groupBy names an existing label
// column the buckets are additionally keyed by that dimension (empty values
// form their own group). An empty frame, or one without numeric columns,
// yields an empty slice.
//
// Per-bucket rates must be recomputed from the bucket's summed components
// via SafeDivide; averaging daily rates gives a statistically wrong weekly
// rate.
func WeeklyRollup(f *Frame, groupBy string) []WeekBucket {
	if f.IsEmpty() || len(f.Numeric) == 0 {
		return nil
	}
	groups, hasGroup := f.Label[groupBy], false
	if groupBy != "" {
		_, hasGroup = f.Label[groupBy]
	}

	type key struct {
		week  time.Time
		group string
	}
	sums := map[key]Summary{}
	for i, d := range f.Dates {
		k := key{week: WeekStart(d)}
		if hasGroup {
			k.group = groups[i]
		}
		s, ok := sums[k]
		if !ok {
			s = Summary{}
			for _, c := range f.NumericColumns() {
				s[c] = 0
			}
			sums[k] = s
		}
		for name, col := range f.Numeric {
			s[name] += col[i]
		}
	}

	out := make([]WeekBucket, 0, len(sums))
	for k, s := range sums {
		out = append(out, WeekBucket{Week: k.week, Group: k.group, Sums: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Week.Equal(out[j].Week) {
			return out[i].Week.Before(out[j].Week)
		}
		return out[i].Group < out[j].Group
	})
	return out
}
