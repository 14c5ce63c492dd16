package feeds

import (
	"strconv"
	"strings"
	"time"

	"edash/internal/core"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"20060102",
	"2006. 1. 2",
}

// Normalize converts raw feed rows into a canonical Frame per the schema:
// rename columns, parse the date, coerce declared numeric columns (thousands
// separators stripped, "-" placeholder and unparseable cells become 0) and
// recompute derived measures. Rows whose date fails to parse are dropped
// individually; when every row fails the result is simply empty — callers
// treat that as "no usable data", not as an error.
func Normalize(s Schema, rows []Row) *core.Frame {
	f := core.NewFrame()
	for _, row := range rows {
		d, ok := parseRowDate(s, row)
		if !ok {
			continue
		}

		numeric := map[string]float64{}
		labels := map[string]string{}

		if s.PassthroughNumeric {
			for src, raw := range row {
				if isDateHeader(s, src) {
					continue
				}
				numeric[src] = coerceNumber(raw)
			}
		} else {
			canonical := map[string]string{}
			for src, dst := range s.Rename {
				if v, ok := row[src]; ok {
					canonical[dst] = v
				}
			}
			for _, col := range s.NumericColumns {
				numeric[col] = coerceNumber(canonical[col])
			}
			for _, col := range s.LabelColumns {
				labels[col] = strings.TrimSpace(canonical[col])
			}
		}

		if s.Derive != nil {
			s.Derive(numeric)
		}
		f.AppendRow(d, numeric, labels)
	}
	return f
}

func parseRowDate(s Schema, row Row) (time.Time, bool) {
	raw, ok := row[s.DateColumn]
	if !ok || strings.TrimSpace(raw) == "" {
		for _, alt := range s.AltDateColumns {
			if v, found := row[alt]; found && strings.TrimSpace(v) != "" {
				raw = v
				ok = true
				break
			}
		}
	}
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(raw)
}

func isDateHeader(s Schema, header string) bool {
	if header == s.DateColumn {
		return true
	}
	for _, alt := range s.AltDateColumns {
		if header == alt {
			return true
		}
	}
	return false
}

// ParseDate parses a sheet date cell, trying the known export layouts.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return core.Day(t), true
		}
	}
	return time.Time{}, false
}

// coerceNumber parses a sheet cell into a finite float. Thousands separators
// and currency/percent decorations are stripped first; the "-" placeholder
// and anything unparseable coerce to 0.
func coerceNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimPrefix(raw, "₩")
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
