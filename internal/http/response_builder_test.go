package http

import (
	"testing"
	"time"

	"edash/internal/core"
	"edash/internal/feeds"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// twoDayFrame holds one prior day and one current day of ad metrics.
func twoDayFrame() *core.Frame {
	f := core.NewFrame()
	f.AppendRow(day("2024-03-09"), map[string]float64{
		"ad_revenue": 100, "margin": 40, "clicks": 100, "conversions": 2,
	}, map[string]string{"os": "AOS"})
	f.AppendRow(day("2024-03-10"), map[string]float64{
		"ad_revenue": 150, "margin": 60, "clicks": 100, "conversions": 3,
	}, map[string]string{"os": "iOS"})
	return f
}

func TestBuildKPIResponse(t *testing.T) {
	frame := twoDayFrame()
	w := core.NewWindow(day("2024-03-10"), day("2024-03-10"))

	resp := buildKPIResponse(feeds.PointClick(), frame, w)

	if resp.NoData {
		t.Fatalf("unexpected no_data")
	}
	if resp.Previous.Start != "2024-03-09" || resp.Previous.End != "2024-03-09" {
		t.Errorf("previous window = %+v", resp.Previous)
	}

	byName := map[string]kpiJSON{}
	for _, k := range resp.KPIs {
		byName[k.Name] = k
	}

	rev := byName["ad_revenue"]
	if rev.Value != 150 || rev.Previous != 100 {
		t.Errorf("ad_revenue = %+v", rev)
	}
	if rev.DeltaPct == nil || *rev.DeltaPct != 50 {
		t.Errorf("ad_revenue delta = %+v", rev.DeltaPct)
	}
	if rev.Formatted != "₩150" {
		t.Errorf("ad_revenue formatted = %q", rev.Formatted)
	}

	// margin rate held at 40% in both periods.
	mr := byName["margin_rate"]
	if mr.Value != 40 || mr.Previous != 40 {
		t.Errorf("margin_rate = %+v", mr)
	}
	if mr.DeltaPP == nil || *mr.DeltaPP != 0 {
		t.Errorf("margin_rate delta = %+v", mr.DeltaPP)
	}

	cvr := byName["cvr"]
	if cvr.Value != 3 || cvr.Previous != 2 {
		t.Errorf("cvr = %+v", cvr)
	}
	if cvr.DeltaPP == nil || *cvr.DeltaPP != 1 {
		t.Errorf("cvr delta = %+v", cvr.DeltaPP)
	}
	if cvr.Formatted != "3.0%" {
		t.Errorf("cvr formatted = %q", cvr.Formatted)
	}
}

func TestBuildKPIResponseNoData(t *testing.T) {
	frame := twoDayFrame()
	w := core.NewWindow(day("2025-01-01"), day("2025-01-31"))

	resp := buildKPIResponse(feeds.PointClick(), frame, w)
	if !resp.NoData {
		t.Fatalf("expected no_data for out-of-range window")
	}
	for _, k := range resp.KPIs {
		if k.Value != 0 {
			t.Errorf("kpi %s = %v, want 0", k.Name, k.Value)
		}
	}
}

func TestBuildKPIResponsePassthroughFeed(t *testing.T) {
	f := core.NewFrame()
	f.AppendRow(day("2024-03-10"), map[string]float64{"sessions": 120, "activeUsers": 80}, nil)

	schema := feeds.GA4("pointclick_ga", "포인트클릭_GA")
	resp := buildKPIResponse(schema, f, core.NewWindow(day("2024-03-10"), day("2024-03-10")))

	if len(resp.KPIs) != 2 {
		t.Fatalf("KPIs = %+v", resp.KPIs)
	}
	// Synthesized KPIs come in sorted column order.
	if resp.KPIs[0].Name != "activeUsers" || resp.KPIs[0].Value != 80 {
		t.Errorf("first KPI = %+v", resp.KPIs[0])
	}
	if resp.KPIs[1].Name != "sessions" || resp.KPIs[1].Formatted != "120" {
		t.Errorf("second KPI = %+v", resp.KPIs[1])
	}
}

func TestBuildWeeklyResponse(t *testing.T) {
	f := core.NewFrame()
	// Week of Mon 2024-03-04 and week of Mon 2024-03-11.
	f.AppendRow(day("2024-03-05"), map[string]float64{"ad_revenue": 100, "margin": 50}, nil)
	f.AppendRow(day("2024-03-06"), map[string]float64{"ad_revenue": 100, "margin": 30}, nil)
	f.AppendRow(day("2024-03-12"), map[string]float64{"ad_revenue": 200, "margin": 40}, nil)

	w := core.NewWindow(day("2024-03-01"), day("2024-03-31"))
	resp := buildWeeklyResponse(feeds.PointClick(), f, w, "")

	if len(resp.Weeks) != 2 {
		t.Fatalf("weeks = %+v", resp.Weeks)
	}
	first := resp.Weeks[0]
	if first.WeekStart != "2024-03-04" || first.Label != "3/4~3/10" {
		t.Errorf("first week = %+v", first)
	}
	if first.Sums.Get("ad_revenue") != 200 {
		t.Errorf("first week revenue = %v", first.Sums.Get("ad_revenue"))
	}
	// 80/200, recomputed from the bucket sums.
	if got := first.Rates["margin_rate"]; got != 40 {
		t.Errorf("first week margin_rate = %v", got)
	}
	second := resp.Weeks[1]
	if got := second.Rates["margin_rate"]; got != 20 {
		t.Errorf("second week margin_rate = %v", got)
	}
}

func TestBuildWeeklyResponseGrouped(t *testing.T) {
	f := core.NewFrame()
	f.AppendRow(day("2024-03-05"), map[string]float64{"ad_revenue": 100}, map[string]string{"os": "AOS"})
	f.AppendRow(day("2024-03-06"), map[string]float64{"ad_revenue": 50}, map[string]string{"os": "iOS"})

	w := core.NewWindow(day("2024-03-01"), day("2024-03-31"))
	resp := buildWeeklyResponse(feeds.PointClick(), f, w, "os")

	if len(resp.Weeks) != 2 {
		t.Fatalf("weeks = %+v", resp.Weeks)
	}
	if resp.Weeks[0].Group != "AOS" || resp.Weeks[1].Group != "iOS" {
		t.Errorf("groups = %q, %q", resp.Weeks[0].Group, resp.Weeks[1].Group)
	}
}

func TestBuildBreakdownResponse(t *testing.T) {
	f := core.NewFrame()
	f.AppendRow(day("2024-03-05"), map[string]float64{"ad_revenue": 300}, map[string]string{"os": "AOS"})
	f.AppendRow(day("2024-03-06"), map[string]float64{"ad_revenue": 100}, map[string]string{"os": "iOS"})
	f.AppendRow(day("2024-03-07"), map[string]float64{"ad_revenue": 100}, map[string]string{"os": "AOS"})

	w := core.NewWindow(day("2024-03-01"), day("2024-03-31"))
	resp := buildBreakdownResponse(feeds.PointClick(), f, w, "os", "ad_revenue")

	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %+v", resp.Rows)
	}
	if resp.Rows[0].Value != "AOS" || resp.Rows[0].Sum != 400 || resp.Rows[0].SharePct != 80 {
		t.Errorf("first row = %+v", resp.Rows[0])
	}
	if resp.Rows[1].Value != "iOS" || resp.Rows[1].SharePct != 20 {
		t.Errorf("second row = %+v", resp.Rows[1])
	}
}

func TestDefaultMeasure(t *testing.T) {
	if got := defaultMeasure(feeds.PointClick(), core.NewFrame()); got != "ad_revenue" {
		t.Errorf("defaultMeasure = %q", got)
	}

	f := core.NewFrame()
	f.AppendRow(day("2024-03-05"), map[string]float64{"sessions": 1}, nil)
	schema := feeds.GA4("ga", "GA")
	if got := defaultMeasure(schema, f); got != "sessions" {
		t.Errorf("defaultMeasure passthrough = %q", got)
	}
}
