package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/neuron/internal/db"
	json "github.com/goccy/go-json"
)

type SQLiteMetadataRepo struct {
	db db.DBTX
}

func NewSQLiteMetadataRepo(conn db.DBTX) *SQLiteMetadataRepo {
	return &SQLiteMetadataRepo{db: conn}
}

// Get decodes the value stored under key into dst.
func (r *SQLiteMetadataRepo) Get(ctx context.Context, key string, dst any) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("metadata %q: %w", key, ErrNotFound)
		}
		return fmt.Errorf("reading metadata %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decoding metadata %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetadataRepo) Set(ctx context.Context, key string, value any, at time.Time) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding metadata %q: %w", key, err)
	}
	query := `INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(b), formatTime(at)); err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetadataRepo) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("checking metadata %q: %w", key, err)
	}
	return n > 0, nil
}
