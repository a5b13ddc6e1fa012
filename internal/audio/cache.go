package audio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/handiism/traktor-cues/internal/model"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// CachedAnalyzer stores the results of another Analyzer in SQLite.
//
// Entries are keyed by file path, size and modification time, so a file
// that changes on disk is analyzed again.
type CachedAnalyzer struct {
	db   *sql.DB
	next Analyzer
}

// NewCachedAnalyzer opens (or creates) the cache at storagePath and wraps
// next. Use ":memory:" for a cache that lives as long as the process.
func NewCachedAnalyzer(storagePath string, next Analyzer) (*CachedAnalyzer, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	c := &CachedAnalyzer{db: db, next: next}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *CachedAnalyzer) Close() error {
	return c.db.Close()
}

// Analyze returns the cached analysis for path, or runs the wrapped
// analyzer and stores its result. Errors are not cached.
func (c *CachedAnalyzer) Analyze(ctx context.Context, path string) (*model.Analysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	size := info.Size()
	mtime := info.ModTime().UnixNano()

	if a, ok, err := c.lookup(ctx, path, size, mtime); err != nil {
		return nil, err
	} else if ok {
		return a, nil
	}

	a, err := c.next.Analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, path, size, mtime, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *CachedAnalyzer) lookup(ctx context.Context, path string, size, mtime int64) (*model.Analysis, bool, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT payload FROM analyses WHERE path = ? AND size = ? AND mtime = ?",
		path, size, mtime)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load analysis: %w", err)
	}

	var a model.Analysis
	if err := json.Unmarshal(payload, &a); err != nil {
		// A payload we cannot read is treated as a miss and overwritten.
		return nil, false, nil
	}
	return &a, true, nil
}

func (c *CachedAnalyzer) store(ctx context.Context, path string, size, mtime int64, a *model.Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO analyses (path, size, mtime, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime = excluded.mtime,
			payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
	`, path, size, mtime, payload)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (c *CachedAnalyzer) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS analyses (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		payload BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := c.db.Exec(query)
	return err
}
