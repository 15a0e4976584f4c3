package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/neuron/internal/domain"
)

type DemandRepo interface {
	// Upsert writes d keyed by numero and recomputes its day timestamps.
	Upsert(ctx context.Context, d *domain.Demand) error
	GetByNumero(ctx context.Context, numero string) (*domain.Demand, error)
	ListAll(ctx context.Context) ([]*domain.Demand, error)
	List(ctx context.Context, f domain.DemandFilter) ([]*domain.Demand, error)
	Delete(ctx context.Context, numero string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type CompletionRepo interface {
	// Mark is idempotent; re-marking keeps the first timestamp.
	Mark(ctx context.Context, numero string, at time.Time) error
	Unmark(ctx context.Context, numero string) error
	IsMarked(ctx context.Context, numero string) (bool, error)
	List(ctx context.Context) ([]domain.CompletionMark, error)
	DeleteAll(ctx context.Context) error
}

// MetadataRepo stores JSON documents by key.
type MetadataRepo interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, at time.Time) error
	Exists(ctx context.Context, key string) (bool, error)
}
