package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
// Sets WAL mode and enables foreign keys.
// Runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would be a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// OpenOptions bounds the startup retry in Open.
type OpenOptions struct {
	Attempts int
	Backoff  time.Duration
	Logger   zerolog.Logger
}

// DefaultOpenOptions retries three times starting at 100ms.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{Attempts: 3, Backoff: 100 * time.Millisecond, Logger: zerolog.Nop()}
}

// Open is OpenDB with a bounded, doubling backoff between attempts. It gives
// up after opts.Attempts and returns the last error.
func Open(ctx context.Context, path string, opts OpenOptions) (*sql.DB, error) {
	attempts := max(opts.Attempts, 1)
	backoff := opts.Backoff

	var lastErr error
	for i := 1; i <= attempts; i++ {
		database, err := OpenDB(path)
		if err == nil {
			return database, nil
		}
		lastErr = err
		opts.Logger.Warn().Err(err).Int("attempt", i).Int("of", attempts).Str("path", path).Msg("opening store failed")
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("opening %s after %d attempts: %w", path, attempts, lastErr)
}
