// Package feeds maps raw spreadsheet feeds onto the canonical table. Each
// feed declares a static schema (source header → canonical column, numeric
// coercion list, derived measures) so normalization never does dynamic
// lookups against localized header strings at aggregation time.
package feeds

import "edash/internal/core"

// Row is one raw record keyed by source column header.
type Row map[string]string

// KPI describes one headline metric of a feed. Either Measure is set (a
// summed column rendered with Delta) or RateNum/RateDen are set (a ratio
// rendered with RateDelta).
type KPI struct {
	Name    string
	Measure string
	RateNum string
	RateDen string
	Format  string // "won", "count" or "percent"
}

// Schema declares how one source feed becomes a canonical Frame.
type Schema struct {
	Name       string
	SheetName  string
	DateColumn string
	// AltDateColumns are fallback headers tried when DateColumn is absent
	// (mixed-language export headers).
	AltDateColumns []string
	// Rename maps source headers to canonical column names. Unmapped
	// columns are dropped unless PassthroughNumeric is set.
	Rename map[string]string
	// NumericColumns and LabelColumns use canonical names.
	NumericColumns []string
	LabelColumns   []string
	// PassthroughNumeric coerces every non-date column to a numeric
	// measure under its source name (analytics feeds with open-ended
	// metric sets).
	PassthroughNumeric bool
	// Derive recomputes derived measures from the coerced base measures of
	// one row. Derived values always win over sheet-provided columns of
	// the same name.
	Derive func(m map[string]float64)

	KPIs []KPI
}

// PointClick is the B2B ad-network transactional feed.
func PointClick() Schema {
	return Schema{
		Name:       "pointclick",
		SheetName:  "포인트클릭_DB",
		DateColumn: "일자",
		Rename: map[string]string{
			"일자":     "date",
			"광고구분":   "ad_category",
			"매체타입":   "media_type",
			"퍼블리셔타입": "publisher_type",
			"광고명":    "ad_name",
			"매체명":    "media_name",
			"광고주명":   "advertiser",
			"OS":     "os",
			"광고타입":   "ad_type",
			"광고단가":   "unit_price",
			"클릭수":    "clicks",
			"전환수":    "conversions",
			"광고비":    "ad_revenue",
			"매체수익금":  "media_cost",
		},
		NumericColumns: []string{"unit_price", "clicks", "conversions", "ad_revenue", "media_cost"},
		LabelColumns:   []string{"ad_category", "media_type", "publisher_type", "ad_name", "media_name", "advertiser", "os", "ad_type"},
		// The sheet carries precomputed margin/rate columns; they are
		// recomputed here from the base measures so they can never drift
		// from the coerced values.
		Derive: func(m map[string]float64) {
			m["margin"] = m["ad_revenue"] - m["media_cost"]
			m["margin_rate"] = core.SafeDivide(m["margin"], m["ad_revenue"], 0, 100)
			m["media_rate"] = core.SafeDivide(m["media_cost"], m["ad_revenue"], 0, 100)
			m["cvr"] = core.SafeDivide(m["conversions"], m["clicks"], 0, 100)
		},
		KPIs: []KPI{
			{Name: "ad_revenue", Measure: "ad_revenue", Format: "won"},
			{Name: "margin", Measure: "margin", Format: "won"},
			{Name: "margin_rate", RateNum: "margin", RateDen: "ad_revenue", Format: "percent"},
			{Name: "conversions", Measure: "conversions", Format: "count"},
			{Name: "cvr", RateNum: "conversions", RateDen: "clicks", Format: "percent"},
		},
	}
}

// CashPlay is the B2C rewards-app monetization feed. Every column except the
// date is a won amount; "-" cells mean zero.
func CashPlay() Schema {
	return Schema{
		Name:       "cashplay",
		SheetName:  "캐시플레이_DB",
		DateColumn: "날짜",
		Rename: map[string]string{
			"날짜":          "date",
			"리워드(원)_유상":   "reward_paid",
			"리워드(원)_무상":   "reward_free",
			"리워드(원)_합계":   "reward_total",
			"게임(원)_직거래":   "game_direct",
			"게임(원)_DSP":   "game_dsp",
			"게임(원)_RS":    "game_rs",
			"게임(원)_인수":    "game_acquisition",
			"게임(원)_합계":    "game_total",
			"게더링(원)_포인트클릭": "gathering_pointclick",
			"IAA(원)_레벨플레이": "iaa_levelplay",
			"IAA(원)_애드웨일":  "iaa_adwhale",
			"IAA(원)_허블":    "iaa_hubble",
			"IAA(원)_합계":    "iaa_total",
			"오퍼월(원)_애드팝콘":  "offerwall_adpopcorn",
			"오퍼월(원)_포인트클릭": "offerwall_pointclick",
			"오퍼월(원)_아이브":   "offerwall_ive",
			"오퍼월(원)_애드포러스": "offerwall_adforus",
			"오퍼월(원)_애디슨":   "offerwall_addison",
			"오퍼월(원)_애드조":   "offerwall_adjo",
			"오퍼월(원)_합계":    "offerwall_total",
		},
		NumericColumns: []string{
			"reward_paid", "reward_free", "reward_total",
			"game_direct", "game_dsp", "game_rs", "game_acquisition", "game_total",
			"gathering_pointclick",
			"iaa_levelplay", "iaa_adwhale", "iaa_hubble", "iaa_total",
			"offerwall_adpopcorn", "offerwall_pointclick", "offerwall_ive",
			"offerwall_adforus", "offerwall_addison", "offerwall_adjo", "offerwall_total",
		},
		Derive: func(m map[string]float64) {
			m["revenue_total"] = m["game_total"] + m["gathering_pointclick"] + m["iaa_total"] + m["offerwall_total"]
			m["cost_total"] = m["reward_total"]
			m["margin"] = m["revenue_total"] - m["cost_total"]
			m["margin_rate"] = core.SafeDivide(m["margin"], m["revenue_total"], 0, 100)
			// Own-channel revenue: the slices served through PointClick.
			m["pointclick_revenue"] = m["gathering_pointclick"] + m["offerwall_pointclick"]
			m["pointclick_ratio"] = core.SafeDivide(m["pointclick_revenue"], m["revenue_total"], 0, 100)
		},
		KPIs: []KPI{
			{Name: "revenue_total", Measure: "revenue_total", Format: "won"},
			{Name: "cost_total", Measure: "cost_total", Format: "won"},
			{Name: "margin", Measure: "margin", Format: "won"},
			{Name: "margin_rate", RateNum: "margin", RateDen: "revenue_total", Format: "percent"},
			{Name: "pointclick_ratio", RateNum: "pointclick_revenue", RateDen: "revenue_total", Format: "percent"},
		},
	}
}

// GA4 builds a web-analytics event feed schema. The metric set is
// open-ended, so every non-date column is coerced to a numeric measure under
// its source name.
func GA4(name, sheetName string) Schema {
	return Schema{
		Name:               name,
		SheetName:          sheetName,
		DateColumn:         "date",
		AltDateColumns:     []string{"날짜"},
		PassthroughNumeric: true,
	}
}

// Registry returns all configured feeds keyed by name.
func Registry() map[string]Schema {
	all := []Schema{
		PointClick(),
		CashPlay(),
		GA4("pointclick_ga", "포인트클릭_GA"),
		GA4("cashplay_ga", "캐시플레이_GA"),
	}
	out := make(map[string]Schema, len(all))
	for _, s := range all {
		out[s.Name] = s
	}
	return out
}
