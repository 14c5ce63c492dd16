// Package http provides the JSON API over feed snapshots.
//
// This file implements parsing and validation of query parameters shared by
// the aggregation endpoints: the target feed and the reporting window, given
// either as a named preset or as an explicit start/end date pair.

package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"edash/internal/core"
)

// parseWindow resolves the reporting window from query parameters.
// Precedence: explicit start/end dates win over a preset; with neither, the
// current month is used.
func parseWindow(query url.Values, today time.Time) (core.Window, error) {
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))

	if start != "" || end != "" {
		if start == "" || end == "" {
			return core.Window{}, fmt.Errorf("start and end must be given together")
		}
		s, err := time.Parse(dateLayout, start)
		if err != nil {
			return core.Window{}, fmt.Errorf("invalid start date %q: use YYYY-MM-DD", start)
		}
		e, err := time.Parse(dateLayout, end)
		if err != nil {
			return core.Window{}, fmt.Errorf("invalid end date %q: use YYYY-MM-DD", end)
		}
		return core.NewWindow(s, e), nil
	}

	preset := core.Preset(strings.TrimSpace(query.Get("preset")))
	if preset == "" {
		preset = core.PresetThisMonth
	}
	w, err := core.ResolvePreset(preset, today)
	if err != nil {
		return core.Window{}, err
	}
	return w, nil
}

// parseFeed extracts and validates the feed name.
func parseFeed(query url.Values, known func(string) bool) (string, error) {
	feed := strings.TrimSpace(query.Get("feed"))
	if feed == "" {
		return "", fmt.Errorf("missing feed parameter")
	}
	if !known(feed) {
		return "", fmt.Errorf("unknown feed: %s", feed)
	}
	return feed, nil
}
