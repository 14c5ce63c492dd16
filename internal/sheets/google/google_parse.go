package google

import (
	"fmt"
	"strings"

	"edash/internal/feeds"
)

// parseValues converts a values matrix (as returned by the Sheets API) into
// raw rows keyed by the header row. The first row is the header; empty
// headers and fully empty data rows are skipped. Short rows are fine, the
// missing trailing cells simply have no entry.
func parseValues(values [][]interface{}) []feeds.Row {
	if len(values) < 2 {
		return nil
	}
	headers := toStrings(values[0])
	out := make([]feeds.Row, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		cells := toStrings(values[i])
		row := feeds.Row{}
		empty := true
		for j, h := range headers {
			if h == "" || j >= len(cells) {
				continue
			}
			row[h] = cells[j]
			if cells[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
