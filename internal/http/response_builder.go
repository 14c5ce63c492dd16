// This file builds the JSON payloads of the aggregation endpoints from
// normalized frames. Formatting rules follow the feed schema: won amounts,
// plain counts and one-decimal percentages, never NaN.

package http

import (
	"sort"

	"edash/internal/core"
	"edash/internal/feeds"
)

type windowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toWindowJSON(w core.Window) windowJSON {
	return windowJSON{
		Start: w.Start.Format(dateLayout),
		End:   w.End.Format(dateLayout),
	}
}

type kpiJSON struct {
	Name              string   `json:"name"`
	Value             float64  `json:"value"`
	Formatted         string   `json:"formatted"`
	Previous          float64  `json:"previous"`
	PreviousFormatted string   `json:"previous_formatted"`
	DeltaPct          *float64 `json:"delta_pct,omitempty"`
	DeltaPP           *float64 `json:"delta_pp,omitempty"`
}

type kpiResponse struct {
	Feed     string     `json:"feed"`
	Window   windowJSON `json:"window"`
	Previous windowJSON `json:"previous"`
	NoData   bool       `json:"no_data"`
	KPIs     []kpiJSON  `json:"kpis"`
}

// buildKPIResponse compares the window against its preceding window of equal
// length and renders one entry per configured KPI. Summed measures carry a
// percentage delta; ratio measures are recomputed per window and carry a
// percentage-point delta.
func buildKPIResponse(schema feeds.Schema, frame *core.Frame, w core.Window) kpiResponse {
	cmp := core.Compare(frame, w)

	resp := kpiResponse{
		Feed:     schema.Name,
		Window:   toWindowJSON(cmp.Window),
		Previous: toWindowJSON(cmp.Previous),
		NoData:   frame.Slice(w).IsEmpty(),
	}

	for _, kpi := range schemaKPIs(schema, frame) {
		var entry kpiJSON
		entry.Name = kpi.Name
		if kpi.Measure != "" {
			entry.Value = cmp.Current.Get(kpi.Measure)
			entry.Previous = cmp.Prior.Get(kpi.Measure)
			delta := cmp.Delta(kpi.Measure)
			entry.DeltaPct = &delta
		} else {
			entry.Value = core.SafeDivide(cmp.Current.Get(kpi.RateNum), cmp.Current.Get(kpi.RateDen), 0, 100)
			entry.Previous = core.SafeDivide(cmp.Prior.Get(kpi.RateNum), cmp.Prior.Get(kpi.RateDen), 0, 100)
			delta := cmp.RateDelta(kpi.RateNum, kpi.RateDen)
			entry.DeltaPP = &delta
		}
		entry.Formatted = formatValue(kpi.Format, entry.Value)
		entry.PreviousFormatted = formatValue(kpi.Format, entry.Previous)
		resp.KPIs = append(resp.KPIs, entry)
	}

	return resp
}

// schemaKPIs returns the configured KPIs, or one count KPI per numeric
// column for open-ended feeds without a fixed KPI set.
func schemaKPIs(schema feeds.Schema, frame *core.Frame) []feeds.KPI {
	if len(schema.KPIs) > 0 {
		return schema.KPIs
	}
	cols := frame.NumericColumns()
	out := make([]feeds.KPI, 0, len(cols))
	for _, col := range cols {
		out = append(out, feeds.KPI{Name: col, Measure: col, Format: "count"})
	}
	return out
}

func formatValue(format string, v float64) string {
	switch format {
	case "won":
		return core.FormatWon(v)
	case "percent":
		return core.FormatPercent(v)
	default:
		return core.FormatCount(v)
	}
}

type weekJSON struct {
	WeekStart string             `json:"week_start"`
	Label     string             `json:"label"`
	Group     string             `json:"group,omitempty"`
	Sums      core.Summary       `json:"sums"`
	Rates     map[string]float64 `json:"rates,omitempty"`
}

type weeklyResponse struct {
	Feed   string     `json:"feed"`
	Window windowJSON `json:"window"`
	Group  string     `json:"group,omitempty"`
	NoData bool       `json:"no_data"`
	Weeks  []weekJSON `json:"weeks"`
}

// buildWeeklyResponse rolls the window up into Monday-anchored weekly
// buckets. Ratio KPIs are recomputed from each bucket's sums instead of
// averaging daily rates.
func buildWeeklyResponse(schema feeds.Schema, frame *core.Frame, w core.Window, group string) weeklyResponse {
	sub := frame.Slice(w)
	resp := weeklyResponse{
		Feed:   schema.Name,
		Window: toWindowJSON(w),
		Group:  group,
		NoData: sub.IsEmpty(),
	}

	for _, bucket := range core.WeeklyRollup(sub, group) {
		week := weekJSON{
			WeekStart: bucket.Week.Format(dateLayout),
			Label:     core.WeekLabel(bucket.Week),
			Group:     bucket.Group,
			Sums:      bucket.Sums,
		}
		for _, kpi := range schema.KPIs {
			if kpi.RateNum == "" {
				continue
			}
			if week.Rates == nil {
				week.Rates = map[string]float64{}
			}
			week.Rates[kpi.Name] = core.SafeDivide(
				bucket.Sums.Get(kpi.RateNum), bucket.Sums.Get(kpi.RateDen), 0, 100)
		}
		resp.Weeks = append(resp.Weeks, week)
	}

	return resp
}

type breakdownRowJSON struct {
	Value     string  `json:"value"`
	Sum       float64 `json:"sum"`
	Formatted string  `json:"formatted"`
	SharePct  float64 `json:"share_pct"`
}

type breakdownResponse struct {
	Feed      string             `json:"feed"`
	Window    windowJSON         `json:"window"`
	Dimension string             `json:"dimension"`
	Measure   string             `json:"measure"`
	NoData    bool               `json:"no_data"`
	Rows      []breakdownRowJSON `json:"rows"`
}

// buildBreakdownResponse sums one measure per distinct value of a label
// dimension, with each row's share of the window total.
func buildBreakdownResponse(schema feeds.Schema, frame *core.Frame, w core.Window, dim, measure string) breakdownResponse {
	sub := frame.Slice(w)
	resp := breakdownResponse{
		Feed:      schema.Name,
		Window:    toWindowJSON(w),
		Dimension: dim,
		Measure:   measure,
		NoData:    sub.IsEmpty(),
	}

	labels := sub.Label[dim]
	values := sub.Numeric[measure]
	sums := map[string]float64{}
	var total float64
	for i := 0; i < sub.Len(); i++ {
		var label string
		if i < len(labels) {
			label = labels[i]
		}
		var v float64
		if i < len(values) {
			v = values[i]
		}
		sums[label] += v
		total += v
	}

	format := measureFormat(schema, measure)
	for label, sum := range sums {
		resp.Rows = append(resp.Rows, breakdownRowJSON{
			Value:     label,
			Sum:       sum,
			Formatted: formatValue(format, sum),
			SharePct:  core.SafeDivide(sum, total, 0, 100),
		})
	}
	sort.Slice(resp.Rows, func(i, j int) bool {
		if resp.Rows[i].Sum != resp.Rows[j].Sum {
			return resp.Rows[i].Sum > resp.Rows[j].Sum
		}
		return resp.Rows[i].Value < resp.Rows[j].Value
	})

	return resp
}

// defaultMeasure picks the first summed KPI measure, falling back to the
// first numeric column.
func defaultMeasure(schema feeds.Schema, frame *core.Frame) string {
	for _, kpi := range schema.KPIs {
		if kpi.Measure != "" {
			return kpi.Measure
		}
	}
	if cols := frame.NumericColumns(); len(cols) > 0 {
		return cols[0]
	}
	return ""
}

func measureFormat(schema feeds.Schema, measure string) string {
	for _, kpi := range schema.KPIs {
		if kpi.Measure == measure {
			return kpi.Format
		}
	}
	return "count"
}
