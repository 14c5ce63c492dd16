package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"edash/internal/feeds"
	ports "edash/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// Ensure interface conformance
var _ ports.FeedReader = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceFeed swaps the stored rows of one feed inside a single transaction.
// Inserts run in multi-row batches of batchSize. The row date is extracted so
// reads come back in date order; rows without a parseable date keep an empty
// row_date and sort first.
func (r *SQLiteRepository) ReplaceFeed(ctx context.Context, feed feeds.Schema, rows []feeds.Row, batchSize int) error {
	if batchSize < 1 {
		batchSize = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_rows WHERE feed = ?`, feed.Name); err != nil {
		return fmt.Errorf("clear feed %s: %w", feed.Name, err)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*3)
		for _, row := range batch {
			payload, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("marshal row: %w", err)
			}
			placeholders = append(placeholders, "(?, ?, ?)")
			args = append(args, feed.Name, rowDate(feed, row), string(payload))
		}

		query := `INSERT INTO feed_rows (feed, row_date, payload) VALUES ` + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Feed rows replaced in SQLite", "feed", feed.Name, "rows", len(rows))
	return nil
}

// ReadFeed implements sheets.FeedReader over the mirrored rows.
func (r *SQLiteRepository) ReadFeed(ctx context.Context, feed feeds.Schema) ([]feeds.Row, error) {
	dbRows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM feed_rows WHERE feed = ? ORDER BY row_date, id`, feed.Name)
	if err != nil {
		return nil, fmt.Errorf("query feed %s: %w", feed.Name, err)
	}
	defer dbRows.Close()

	var out []feeds.Row
	for dbRows.Next() {
		var payload string
		if err := dbRows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := feeds.Row{}
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		out = append(out, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// CountRows returns the number of mirrored rows for one feed.
func (r *SQLiteRepository) CountRows(ctx context.Context, feed string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feed_rows WHERE feed = ?`, feed).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count feed %s: %w", feed, err)
	}
	return n, nil
}

// LastSyncedAt returns when the feed was last written. Zero time when the
// feed has never been synced.
func (r *SQLiteRepository) LastSyncedAt(ctx context.Context, feed string) (time.Time, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM feed_rows WHERE feed = ?`, feed).Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("last sync for feed %s: %w", feed, err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw.String); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse sync timestamp %q", raw.String)
}

func rowDate(feed feeds.Schema, row feeds.Row) string {
	headers := append([]string{feed.DateColumn}, feed.AltDateColumns...)
	for _, h := range headers {
		if t, ok := feeds.ParseDate(row[h]); ok {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
