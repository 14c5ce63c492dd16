package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"edash/internal/feeds"
)

func TestMemoryStoreReadFeed(t *testing.T) {
	s := New(map[string][]feeds.Row{
		"pointclick": {{"일자": "2024-03-01", "광고비": "100"}},
	})
	rows, err := s.ReadFeed(context.Background(), feeds.PointClick())
	if err != nil || len(rows) != 1 {
		t.Fatalf("unexpected read: rows=%v err=%v", rows, err)
	}
	if rows[0]["광고비"] != "100" {
		t.Fatalf("row = %v", rows[0])
	}

	if _, err := s.ReadFeed(context.Background(), feeds.CashPlay()); err == nil {
		t.Fatalf("expected error for unseeded feed")
	}
}

func TestPutReplacesRows(t *testing.T) {
	s := New(nil)
	s.Put("pointclick", []feeds.Row{{"일자": "2024-03-01"}})
	s.Put("pointclick", []feeds.Row{{"일자": "2024-03-02"}, {"일자": "2024-03-03"}})
	rows, err := s.ReadFeed(context.Background(), feeds.PointClick())
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
}

func TestNewFromFilesSeedsAndFallback(t *testing.T) {
	dir := t.TempDir()
	reg := feeds.Registry()

	// No files -> generated sample data for every feed
	s := NewFromFiles(dir, reg)
	for name, schema := range reg {
		rows, err := s.ReadFeed(context.Background(), schema)
		if err != nil || len(rows) == 0 {
			t.Fatalf("feed %s: expected sample rows, got %d err=%v", name, len(rows), err)
		}
	}

	// Seed file wins over generated data
	seed := "# comment\n일자\t광고비\t매체수익금\n2024-03-01\t100000\t60000\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_pointclick.tsv"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir, reg)
	rows, err := s.ReadFeed(context.Background(), feeds.PointClick())
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
	if rows[0]["광고비"] != "100000" {
		t.Fatalf("row = %v", rows[0])
	}
}

func TestSampleRowsNormalize(t *testing.T) {
	today := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	for _, schema := range []feeds.Schema{feeds.PointClick(), feeds.CashPlay()} {
		rows := sampleRows(schema, today)
		if len(rows) != 60 {
			t.Fatalf("%s: %d sample rows, want 60", schema.Name, len(rows))
		}
		f := feeds.Normalize(schema, rows)
		if f.Len() != 60 {
			t.Fatalf("%s: normalized to %d rows", schema.Name, f.Len())
		}
	}
}
