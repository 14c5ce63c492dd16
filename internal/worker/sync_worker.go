package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"edash/internal/feeds"
	"edash/internal/log"
	ports "edash/internal/sheets"
	"edash/internal/storage"
)

// Publisher announces completed feed syncs. Nil disables notifications.
type Publisher interface {
	PublishFeedSynced(ctx context.Context, feed string, rows int) error
}

// SyncWorker mirrors raw feed rows from Google Sheets into SQLite so the
// API server can run against the local copy instead of hitting the Sheets
// API on every snapshot refresh.
type SyncWorker struct {
	source    ports.FeedReader
	storage   *storage.SQLiteRepository
	publisher Publisher
	registry  map[string]feeds.Schema
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(source ports.FeedReader, storage *storage.SQLiteRepository, publisher Publisher, registry map[string]feeds.Schema, batchSize int, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		source:    source,
		storage:   storage,
		publisher: publisher,
		registry:  registry,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// SyncFeed mirrors one feed and returns the number of rows written.
func (w *SyncWorker) SyncFeed(ctx context.Context, feed string) (int, error) {
	schema, ok := w.registry[feed]
	if !ok {
		return 0, fmt.Errorf("unknown feed: %s", feed)
	}

	rows, err := w.source.ReadFeed(ctx, schema)
	if err != nil {
		return 0, fmt.Errorf("read feed %s: %w", feed, err)
	}

	if err := w.storage.ReplaceFeed(ctx, schema, rows, w.batchSize); err != nil {
		return 0, fmt.Errorf("mirror feed %s: %w", feed, err)
	}

	if w.publisher != nil {
		if err := w.publisher.PublishFeedSynced(ctx, feed, len(rows)); err != nil {
			// The mirror succeeded; a lost notification only delays the
			// server until its next scheduled refresh.
			w.logger.WarnContext(ctx, "feed sync notification failed",
				log.FieldFeed, feed,
				log.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "feed mirrored",
		log.FieldFeed, feed,
		log.FieldSheet, schema.SheetName,
		log.FieldRows, len(rows))
	return len(rows), nil
}

// SyncAll mirrors every registered feed. Feeds sync sequentially to stay
// inside the Sheets API read quota.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(1)
	for feed := range w.registry {
		feed := feed
		g.Go(func() error {
			_, err := w.SyncFeed(ctx, feed)
			return err
		})
	}
	return g.Wait()
}

// Run syncs all feeds immediately and then on the given interval until the
// context is cancelled.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.SyncAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "initial feed sync failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "feed sync loop stopped")
			return
		case <-ticker.C:
			if err := w.SyncAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "feed sync failed", log.FieldError, err)
			}
		}
	}
}
