package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"edash/internal/core"
	"edash/internal/feeds"
	"edash/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports readiness: every registered feed must have produced a
// frame at least once.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var pending []string
	for _, feed := range s.store.Feeds() {
		if _, ok := s.store.Frame(feed); !ok {
			pending = append(pending, feed)
		}
	}
	if len(pending) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "loading",
			"pending": pending,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type feedJSON struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	FirstDate   string `json:"first_date,omitempty"`
	LastDate    string `json:"last_date,omitempty"`
	RefreshedAt string `json:"refreshed_at,omitempty"`
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	feedsList := s.store.Feeds()
	out := make([]feedJSON, 0, len(feedsList))
	for _, feed := range feedsList {
		entry := feedJSON{Name: feed}
		if frame, ok := s.store.Frame(feed); ok {
			entry.Rows = frame.Len()
			if min, max, ok := frame.DateRange(); ok {
				entry.FirstDate = min.Format(dateLayout)
				entry.LastDate = max.Format(dateLayout)
			}
		}
		if at, ok := s.store.RefreshedAt(feed); ok {
			entry.RefreshedAt = at.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"feeds": out})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	s.handleAggregation(w, r, "kpis", func(req aggregationRequest) (any, error) {
		return buildKPIResponse(req.schema, req.frame, req.window), nil
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	s.handleAggregation(w, r, "weekly", func(req aggregationRequest) (any, error) {
		group := req.query.Get("group")
		if group != "" {
			if _, ok := req.frame.Label[group]; !ok {
				return nil, fmt.Errorf("unknown group dimension: %s", group)
			}
		}
		return buildWeeklyResponse(req.schema, req.frame, req.window, group), nil
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	s.handleAggregation(w, r, "breakdown", func(req aggregationRequest) (any, error) {
		dim := req.query.Get("dim")
		if dim == "" {
			return nil, fmt.Errorf("missing dim parameter")
		}
		if _, ok := req.frame.Label[dim]; !ok {
			return nil, fmt.Errorf("unknown dimension: %s", dim)
		}
		measure := req.query.Get("measure")
		if measure == "" {
			measure = defaultMeasure(req.schema, req.frame)
		}
		if _, ok := req.frame.Numeric[measure]; !ok {
			return nil, fmt.Errorf("unknown measure: %s", measure)
		}
		return buildBreakdownResponse(req.schema, req.frame, req.window, dim, measure), nil
	})
}

// handleRefresh rebuilds snapshots on demand, one feed when given or all of
// them otherwise.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	feed := r.URL.Query().Get("feed")
	var err error
	if feed != "" {
		err = s.store.RefreshFeed(ctx, feed)
	} else {
		err = s.store.Refresh(ctx)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh failed", log.FieldError, err)
		writeJSONError(w, http.StatusBadGateway, "refresh failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

type aggregationRequest struct {
	query  url.Values
	schema feeds.Schema
	frame  *core.Frame
	window core.Window
}

// handleAggregation runs the shared pipeline of the read endpoints: resolve
// feed and window, serve from the response cache when possible, otherwise
// build the payload and cache it.
func (s *Server) handleAggregation(w http.ResponseWriter, r *http.Request, endpoint string, build func(aggregationRequest) (any, error)) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()

	feed, err := parseFeed(query, func(name string) bool {
		_, ok := s.store.Schema(name)
		return ok
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	schema, _ := s.store.Schema(feed)

	frame, ok := s.store.Frame(feed)
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "feed not loaded yet: "+feed)
		return
	}

	window, err := parseWindow(query, time.Now())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Preset windows are relative to the wall clock, which can run past the
	// last synced day. Explicit ranges are honored as given.
	if query.Get("start") == "" {
		if min, max, ok := frame.DateRange(); ok {
			window = window.Clamp(min, max)
		}
	}

	refreshedAt, _ := s.store.RefreshedAt(feed)
	cacheKey := fmt.Sprintf("%s|%d|%s", endpoint, refreshedAt.Unix(), r.URL.RawQuery)
	if cached, ok := s.responseCache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	payload, err := build(aggregationRequest{
		query:  query,
		schema: schema,
		frame:  frame,
		window: window,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	s.responseCache.Set(cacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
