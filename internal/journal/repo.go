package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names a journaled operation.
type Kind string

const (
	KindApply   Kind = "apply"
	KindUnapply Kind = "unapply"
)

const defaultLimit = 20

// Event is one journal row.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ArticleID string    `json:"article_id"`
	SectionID string    `json:"section_id,omitempty"`
	Project   string    `json:"project,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record stores e, assigning its id and timestamp when empty, and returns
// the stored event.
func (db *DB) Record(ctx context.Context, e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, kind, article_id, section_id, project, commit_hash, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Kind), e.ArticleID, e.SectionID, e.Project, e.Commit, e.Message, e.CreatedAt)
	if err != nil {
		return e, fmt.Errorf("journal: insert event: %w", err)
	}
	if err := ftsInsert(tx, e); err != nil {
		return e, err
	}
	if err := tx.Commit(); err != nil {
		return e, fmt.Errorf("journal: commit: %w", err)
	}
	return e, nil
}

// Recent returns the latest events, newest first. An empty project matches
// every project.
func (db *DB) Recent(ctx context.Context, project string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, article_id, section_id, project, commit_hash, message, created_at
		FROM events
		WHERE ? = '' OR project = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, project, project, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return scanEvents(rows)
}

// Count returns the number of recorded events of kind, or of every kind
// when kind is empty.
func (db *DB) Count(ctx context.Context, kind Kind) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM events WHERE ? = '' OR kind = ?`, string(kind), string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.ArticleID, &e.SectionID, &e.Project, &e.Commit, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
