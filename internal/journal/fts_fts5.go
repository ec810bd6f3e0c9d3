//go:build sqlite_fts5

package journal

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
			id UNINDEXED,
			article_id,
			section_id,
			project,
			commit_hash,
			message,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, e Event) error {
	_, err := tx.Exec(`INSERT INTO events_fts (id, article_id, section_id, project, commit_hash, message) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ArticleID, e.SectionID, e.Project, e.Commit, e.Message)
	if err != nil {
		return fmt.Errorf("journal: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over the journal, best match first.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT e.id, e.kind, e.article_id, e.section_id, e.project, e.commit_hash, e.message, e.created_at
		FROM events_fts f
		JOIN events e ON e.id = f.id
		WHERE events_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	return scanEvents(rows)
}
