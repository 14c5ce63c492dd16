// Package snapshot holds the normalized frames the HTTP API aggregates over.
// Each refresh builds a fresh frame per feed and swaps the pointer under a
// write lock; published frames are never mutated, so handlers can keep
// aggregating over the frame they grabbed while a refresh runs.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"edash/internal/core"
	"edash/internal/feeds"
	"edash/internal/log"
	ports "edash/internal/sheets"
)

// refreshConcurrency bounds parallel feed reads so a refresh never hammers
// the Sheets API quota.
const refreshConcurrency = 4

type Store struct {
	reader   ports.FeedReader
	registry map[string]feeds.Schema
	logger   *log.Logger

	mu          sync.RWMutex
	frames      map[string]*core.Frame
	refreshedAt map[string]time.Time
}

func New(reader ports.FeedReader, registry map[string]feeds.Schema, logger *log.Logger) *Store {
	return &Store{
		reader:      reader,
		registry:    registry,
		logger:      logger.WithComponent(log.ComponentSnapshot),
		frames:      make(map[string]*core.Frame),
		refreshedAt: make(map[string]time.Time),
	}
}

// Feeds returns the registered feed names in stable order.
func (s *Store) Feeds() []string {
	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the registered schema for a feed.
func (s *Store) Schema(feed string) (feeds.Schema, bool) {
	schema, ok := s.registry[feed]
	return schema, ok
}

// Frame returns the current frame for a feed. The returned frame must be
// treated as read-only.
func (s *Store) Frame(feed string) (*core.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frames[feed]
	return f, ok
}

// RefreshedAt returns when the feed's frame was last rebuilt.
func (s *Store) RefreshedAt(feed string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.refreshedAt[feed]
	return t, ok
}

// RefreshFeed rebuilds one feed's frame from the backend.
func (s *Store) RefreshFeed(ctx context.Context, feed string) error {
	schema, ok := s.registry[feed]
	if !ok {
		return fmt.Errorf("unknown feed: %s", feed)
	}

	rows, err := s.reader.ReadFeed(ctx, schema)
	if err != nil {
		return fmt.Errorf("read feed %s: %w", feed, err)
	}

	frame := feeds.Normalize(schema, rows)

	s.mu.Lock()
	s.frames[feed] = frame
	s.refreshedAt[feed] = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "feed snapshot refreshed",
		log.FieldFeed, feed,
		log.FieldRows, frame.Len())
	return nil
}

// Refresh rebuilds every registered feed concurrently. The first error wins,
// but feeds that finished before it keep their new frame.
func (s *Store) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, feed := range s.Feeds() {
		feed := feed
		g.Go(func() error {
			return s.RefreshFeed(ctx, feed)
		})
	}
	return g.Wait()
}

// Run refreshes all feeds immediately and then on the given interval until
// the context is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial snapshot refresh failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "snapshot refresh loop stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.ErrorContext(ctx, "snapshot refresh failed", log.FieldError, err)
			}
		}
	}
}
