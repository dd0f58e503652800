// Package catalog keeps an optional SQLite index of processed recordings.
// The working directory stays the source of truth; the catalog only makes
// many runs searchable.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates no entry exists for a hash.
var ErrNotFound = errors.New("catalog entry not found")

const schema = `
	PRAGMA busy_timeout = 10000;
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous  = NORMAL;

	create table if not exists recordings (
		id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
		name text not null,
		blake3_hash text not null unique,
		workdir text not null,
		segments integer not null default 0,
		is_transcribed integer not null default 0,
		completed_at text
	);`

// Catalog is a SQLite-backed index of recordings.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Upsert records a recording by hash, updating its name and working
// directory if it is already known. Transcription state is preserved.
func (c *Catalog) Upsert(ctx context.Context, name, blake3Hash, workdir string) error {
	_, err := c.db.ExecContext(ctx, `
		insert into recordings (name, blake3_hash, workdir) values ($1, $2, $3)
		on conflict (blake3_hash) do update set name = excluded.name, workdir = excluded.workdir`,
		name, blake3Hash, workdir,
	)
	if err != nil {
		return fmt.Errorf("upsert recording: %w", err)
	}
	return nil
}

// MarkTranscribed flags a recording as complete.
func (c *Catalog) MarkTranscribed(ctx context.Context, blake3Hash string, segments int, at time.Time) error {
	res, err := c.db.ExecContext(ctx, `
		update recordings
		set is_transcribed = 1, segments = $1, completed_at = $2
		where blake3_hash = $3`,
		segments, at.UTC().Format(time.RFC3339), blake3Hash,
	)
	if err != nil {
		return fmt.Errorf("mark transcribed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark transcribed %s: %w", blake3Hash, ErrNotFound)
	}
	return nil
}
