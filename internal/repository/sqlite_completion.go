package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/neuron/internal/db"
	"github.com/alexanderramin/neuron/internal/domain"
)

// SQLiteCompletionRepo implements CompletionRepo. Marks are independent of
// the demands table: a demand may be marked before it is first stored.
type SQLiteCompletionRepo struct {
	db db.DBTX
}

func NewSQLiteCompletionRepo(conn db.DBTX) *SQLiteCompletionRepo {
	return &SQLiteCompletionRepo{db: conn}
}

func (r *SQLiteCompletionRepo) Mark(ctx context.Context, numero string, at time.Time) error {
	query := `INSERT INTO completions (numero, created_at) VALUES (?, ?)
		ON CONFLICT(numero) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, numero, formatTime(at)); err != nil {
		return fmt.Errorf("marking %s complete: %w", numero, err)
	}
	return nil
}

func (r *SQLiteCompletionRepo) Unmark(ctx context.Context, numero string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM completions WHERE numero = ?`, numero); err != nil {
		return fmt.Errorf("unmarking %s: %w", numero, err)
	}
	return nil
}

func (r *SQLiteCompletionRepo) IsMarked(ctx context.Context, numero string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completions WHERE numero = ?`, numero).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking completion of %s: %w", numero, err)
	}
	return n > 0, nil
}

func (r *SQLiteCompletionRepo) List(ctx context.Context) ([]domain.CompletionMark, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT numero, created_at FROM completions ORDER BY numero`)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}
	defer rows.Close()

	marks := make([]domain.CompletionMark, 0)
	for rows.Next() {
		var m domain.CompletionMark
		var createdAt string
		if err := rows.Scan(&m.Numero, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning completion: %w", err)
		}
		m.Timestamp = parseTime(createdAt)
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completions: %w", err)
	}
	return marks, nil
}

func (r *SQLiteCompletionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM completions`); err != nil {
		return fmt.Errorf("clearing completions: %w", err)
	}
	return nil
}
