package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"edash/internal/feeds"
)

type Store struct {
	mu   sync.Mutex
	rows map[string][]feeds.Row
}

func New(rows map[string][]feeds.Row) *Store {
	if rows == nil {
		rows = map[string][]feeds.Row{}
	}
	return &Store{rows: rows}
}

// NewFromFiles loads seed TSV files named seed_<feed>.tsv from base, one per
// registered feed. The first line is the header row; blank lines and lines
// starting with '#' are skipped. Feeds with no seed file fall back to
// generated sample data so the memory backend always serves something.
func NewFromFiles(base string, registry map[string]feeds.Schema) *Store {
	s := New(nil)
	for name, schema := range registry {
		rows := readTSV(filepath.Join(base, "seed_"+name+".tsv"))
		if len(rows) == 0 {
			rows = sampleRows(schema, time.Now().UTC())
		}
		s.rows[name] = rows
	}
	return s
}

// Put replaces the stored rows for one feed.
func (s *Store) Put(feed string, rows []feeds.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[feed] = rows
}

// ReadFeed returns the stored raw rows for the feed.
func (s *Store) ReadFeed(_ context.Context, feed feeds.Schema) ([]feeds.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[feed.Name]
	if !ok {
		return nil, fmt.Errorf("unknown feed: %s", feed.Name)
	}
	out := make([]feeds.Row, len(stored))
	copy(out, stored)
	return out, nil
}

func readTSV(path string) []feeds.Row {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var headers []string
	var out []feeds.Row
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cells := strings.Split(line, "\t")
		if headers == nil {
			headers = make([]string, len(cells))
			for i, h := range cells {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := feeds.Row{}
		for i, h := range headers {
			if h == "" || i >= len(cells) {
				continue
			}
			row[h] = strings.TrimSpace(cells[i])
		}
		out = append(out, row)
	}
	return out
}

// sampleRows generates deterministic daily rows for the trailing 60 days so
// a freshly started memory backend has data to aggregate.
func sampleRows(schema feeds.Schema, today time.Time) []feeds.Row {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var out []feeds.Row
	for i := 59; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		base := 100000 + (i%7)*10000
		row := feeds.Row{schema.DateColumn: d.Format("2006-01-02")}
		switch schema.Name {
		case "pointclick":
			row["광고구분"] = "리워드"
			row["매체타입"] = "앱"
			row["퍼블리셔타입"] = "미디어렙"
			row["광고명"] = "샘플광고"
			row["매체명"] = "샘플매체"
			row["광고주명"] = "샘플광고주"
			row["OS"] = pick(i, "AOS", "iOS")
			row["광고타입"] = pick(i, "CPA", "CPC")
			row["광고단가"] = "100"
			row["클릭수"] = fmt.Sprint(1000 + i*10)
			row["전환수"] = fmt.Sprint(50 + i)
			row["광고비"] = fmt.Sprint(base)
			row["매체수익금"] = fmt.Sprint(base * 6 / 10)
		case "cashplay":
			row["게임(원)_합계"] = fmt.Sprint(base)
			row["게더링(원)_포인트클릭"] = fmt.Sprint(base / 5)
			row["IAA(원)_합계"] = fmt.Sprint(base / 4)
			row["오퍼월(원)_합계"] = fmt.Sprint(base / 2)
			row["오퍼월(원)_포인트클릭"] = fmt.Sprint(base / 10)
			row["리워드(원)_합계"] = fmt.Sprint(base * 7 / 10)
		default:
			row["sessions"] = fmt.Sprint(500 + i*5)
			row["activeUsers"] = fmt.Sprint(300 + i*3)
			row["screenPageViews"] = fmt.Sprint(1500 + i*15)
		}
		out = append(out, row)
	}
	return out
}

func pick(i int, a, b string) string {
	if i%2 == 0 {
		return a
	}
	return b
}
