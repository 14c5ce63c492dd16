package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"edash/internal/feeds"
	"edash/internal/log"
	"edash/internal/sheets/memory"
	"edash/internal/snapshot"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, refresh bool) *Server {
	t.Helper()
	source := memory.New(map[string][]feeds.Row{
		"pointclick": {
			{"일자": "2024-03-09", "광고비": "100", "매체수익금": "60", "클릭수": "100", "전환수": "2", "OS": "AOS"},
			{"일자": "2024-03-10", "광고비": "150", "매체수익금": "90", "클릭수": "100", "전환수": "3", "OS": "iOS"},
		},
	})
	registry := map[string]feeds.Schema{"pointclick": feeds.PointClick()}
	store := snapshot.New(source, registry, testLogger())
	if refresh {
		if err := store.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	srv := NewServer(":0", store, testLogger())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, false)
	rec := doRequest(srv, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleReady(t *testing.T) {
	srv := newTestServer(t, false)
	if rec := doRequest(srv, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before refresh status = %d", rec.Code)
	}

	srv = newTestServer(t, true)
	if rec := doRequest(srv, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("after refresh status = %d", rec.Code)
	}
}

func TestHandleFeeds(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doRequest(srv, http.MethodGet, "/api/feeds")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Feeds []feedJSON `json:"feeds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Feeds) != 1 || resp.Feeds[0].Name != "pointclick" {
		t.Fatalf("feeds = %+v", resp.Feeds)
	}
	if resp.Feeds[0].Rows != 2 || resp.Feeds[0].FirstDate != "2024-03-09" || resp.Feeds[0].LastDate != "2024-03-10" {
		t.Errorf("feed entry = %+v", resp.Feeds[0])
	}
}

func TestHandleKPIs(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doRequest(srv, http.MethodGet, "/api/kpis?feed=pointclick&start=2024-03-10&end=2024-03-10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp kpiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Feed != "pointclick" || resp.NoData {
		t.Fatalf("response = %+v", resp)
	}
	for _, k := range resp.KPIs {
		if k.Name == "ad_revenue" {
			if k.Value != 150 || k.Previous != 100 {
				t.Errorf("ad_revenue = %+v", k)
			}
			return
		}
	}
	t.Fatalf("ad_revenue KPI missing: %+v", resp.KPIs)
}

func TestHandleKPIsBadRequests(t *testing.T) {
	srv := newTestServer(t, true)
	tests := []struct {
		name   string
		target string
	}{
		{"missing feed", "/api/kpis"},
		{"unknown feed", "/api/kpis?feed=nope"},
		{"dangling start", "/api/kpis?feed=pointclick&start=2024-03-01"},
		{"bad preset", "/api/kpis?feed=pointclick&preset=fortnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doRequest(srv, http.MethodGet, tt.target); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestHandleKPIsFeedNotLoaded(t *testing.T) {
	srv := newTestServer(t, false)
	rec := doRequest(srv, http.MethodGet, "/api/kpis?feed=pointclick")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleWeekly(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doRequest(srv, http.MethodGet, "/api/weekly?feed=pointclick&start=2024-03-01&end=2024-03-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp weeklyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Weeks) != 2 {
		t.Fatalf("weeks = %+v", resp.Weeks)
	}

	if rec := doRequest(srv, http.MethodGet, "/api/weekly?feed=pointclick&group=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown group status = %d", rec.Code)
	}
}

func TestHandleBreakdown(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doRequest(srv, http.MethodGet, "/api/breakdown?feed=pointclick&dim=os&start=2024-03-01&end=2024-03-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp breakdownResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Measure != "ad_revenue" || len(resp.Rows) != 2 {
		t.Fatalf("response = %+v", resp)
	}

	if rec := doRequest(srv, http.MethodGet, "/api/breakdown?feed=pointclick"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing dim status = %d", rec.Code)
	}
	if rec := doRequest(srv, http.MethodGet, "/api/breakdown?feed=pointclick&dim=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown dim status = %d", rec.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	srv := newTestServer(t, false)

	if rec := doRequest(srv, http.MethodGet, "/api/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if rec := doRequest(srv, http.MethodPost, "/api/refresh?feed=pointclick"); rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body)
	}
	if rec := doRequest(srv, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz after refresh = %d", rec.Code)
	}
}

func TestResponseCacheRepeatRequest(t *testing.T) {
	srv := newTestServer(t, true)
	target := "/api/kpis?feed=pointclick&start=2024-03-10&end=2024-03-10"

	first := doRequest(srv, http.MethodGet, target)
	second := doRequest(srv, http.MethodGet, target)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status = %d, %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached response differs")
	}
}
