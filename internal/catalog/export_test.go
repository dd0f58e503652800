package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Exports for testing.

// Entry is one recording in the catalog.
type Entry struct {
	Name          string
	Blake3Hash    string
	Workdir       string
	Segments      int
	IsTranscribed bool
	CompletedAt   time.Time
}

// Get returns the entry for a hash.
func (c *Catalog) Get(ctx context.Context, blake3Hash string) (Entry, error) {
	var (
		e             Entry
		isTranscribed int
		completedAt   sql.NullString
	)
	err := c.db.
		QueryRowContext(ctx,
			"select name, blake3_hash, workdir, segments, is_transcribed, completed_at from recordings where blake3_hash = $1",
			blake3Hash,
		).
		Scan(&e.Name, &e.Blake3Hash, &e.Workdir, &e.Segments, &isTranscribed, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", blake3Hash, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get recording by hash: %w", err)
	}

	e.IsTranscribed = isTranscribed == 1
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			e.CompletedAt = t
		}
	}
	return e, nil
}
