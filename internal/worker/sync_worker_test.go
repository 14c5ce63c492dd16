package worker

import (
	"context"
	"path/filepath"
	"testing"

	"edash/internal/feeds"
	"edash/internal/log"
	"edash/internal/sheets/memory"
	"edash/internal/storage"
)

type recordingPublisher struct {
	published map[string]int
}

func (p *recordingPublisher) PublishFeedSynced(_ context.Context, feed string, rows int) error {
	if p.published == nil {
		p.published = map[string]int{}
	}
	p.published[feed] = rows
	return nil
}

func newTestWorker(t *testing.T, source *memory.Store, pub Publisher, registry map[string]feeds.Schema) (*SyncWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	logger := log.New(log.DefaultConfig())
	return NewSyncWorker(source, repo, pub, registry, 100, logger), repo
}

func TestSyncFeedMirrorsAndPublishes(t *testing.T) {
	source := memory.New(map[string][]feeds.Row{
		"pointclick": {
			{"일자": "2024-03-01", "광고비": "100"},
			{"일자": "2024-03-02", "광고비": "200"},
		},
	})
	pub := &recordingPublisher{}
	w, repo := newTestWorker(t, source, pub, map[string]feeds.Schema{"pointclick": feeds.PointClick()})

	n, err := w.SyncFeed(context.Background(), "pointclick")
	if err != nil || n != 2 {
		t.Fatalf("SyncFeed = %d err=%v", n, err)
	}
	if pub.published["pointclick"] != 2 {
		t.Fatalf("publish not recorded: %v", pub.published)
	}

	mirrored, err := repo.ReadFeed(context.Background(), feeds.PointClick())
	if err != nil || len(mirrored) != 2 {
		t.Fatalf("mirrored rows=%v err=%v", mirrored, err)
	}
}

func TestSyncFeedUnknown(t *testing.T) {
	w, _ := newTestWorker(t, memory.New(nil), nil, map[string]feeds.Schema{})
	if _, err := w.SyncFeed(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown feed")
	}
}

func TestSyncAll(t *testing.T) {
	source := memory.New(map[string][]feeds.Row{
		"pointclick": {{"일자": "2024-03-01", "광고비": "100"}},
		"cashplay":   {{"날짜": "2024-03-01", "게임(원)_합계": "500"}},
	})
	registry := map[string]feeds.Schema{
		"pointclick": feeds.PointClick(),
		"cashplay":   feeds.CashPlay(),
	}
	pub := &recordingPublisher{}
	w, repo := newTestWorker(t, source, pub, registry)

	if err := w.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	for feed := range registry {
		if pub.published[feed] != 1 {
			t.Fatalf("feed %s not published: %v", feed, pub.published)
		}
		n, err := repo.CountRows(context.Background(), feed)
		if err != nil || n != 1 {
			t.Fatalf("feed %s count=%d err=%v", feed, n, err)
		}
	}
}

func TestSyncFeedWithoutPublisher(t *testing.T) {
	source := memory.New(map[string][]feeds.Row{
		"pointclick": {{"일자": "2024-03-01", "광고비": "100"}},
	})
	w, _ := newTestWorker(t, source, nil, map[string]feeds.Schema{"pointclick": feeds.PointClick()})
	if _, err := w.SyncFeed(context.Background(), "pointclick"); err != nil {
		t.Fatalf("SyncFeed without publisher: %v", err)
	}
}
