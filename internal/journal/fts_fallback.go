//go:build !sqlite_fts5

package journal

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; Search uses LIKE over the events table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ Event) error { return nil }

// Search performs a LIKE-based search, newest first (fallback when FTS5 is
// not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, article_id, section_id, project, commit_hash, message, created_at
		FROM events
		WHERE article_id LIKE ? OR section_id LIKE ? OR project LIKE ? OR commit_hash LIKE ? OR message LIKE ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	return scanEvents(rows)
}
