package sheets

import (
	"context"

	"edash/internal/feeds"
)

// Ports for outbound adapters.
type (
	// FeedReader returns every raw row of one feed's sheet tab, keyed by
	// source column header. Normalization happens downstream.
	FeedReader interface {
		ReadFeed(ctx context.Context, feed feeds.Schema) ([]feeds.Row, error)
	}
)
