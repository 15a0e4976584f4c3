package service

import (
	"context"
	"io"

	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/alexanderramin/neuron/internal/legacy"
)

// DemandStore is the durable cache of scraped demands and the user's
// completion marks. Storage failures come back as *StorageError.
type DemandStore interface {
	Put(ctx context.Context, d *domain.Demand) error
	// PutMany writes all demands in one transaction.
	PutMany(ctx context.Context, demands []*domain.Demand) error
	Get(ctx context.Context, numero string) (*domain.Demand, error)
	GetAll(ctx context.Context) ([]*domain.Demand, error)
	GetAllByKey(ctx context.Context) (map[string]*domain.Demand, error)
	// Count is the number of stored demands.
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, f domain.DemandFilter) ([]*domain.Demand, error)
	Delete(ctx context.Context, numero string) error
	ClearDemands(ctx context.Context) error
	ClearCompletions(ctx context.Context) error
	// ClearAll removes demands and completion marks together.
	ClearAll(ctx context.Context) error

	MarkComplete(ctx context.Context, numero string, done bool) error
	IsComplete(ctx context.Context, numero string) (bool, error)
	GetCompletedSet(ctx context.Context) (map[string]struct{}, error)

	NeedsMigration(ctx context.Context) (bool, error)
	// MigrateFromLegacyStore imports src once. It reports false without
	// touching src when a previous run already completed.
	MigrateFromLegacyStore(ctx context.Context, src legacy.Source) (bool, error)
	LastMigration(ctx context.Context) (*domain.MigrationMetadata, error)
	GetMetadata(ctx context.Context, key string, dst any) error
	SetMetadata(ctx context.Context, key string, value any) error

	GetStats(ctx context.Context) (*domain.Statistics, error)
	IsRelevantForNotification(d *domain.Demand) bool
	// NotificationCount counts relevant demands not marked complete. With
	// filterByUser and a non-blank user only demands assigned to user count.
	NotificationCount(ctx context.Context, user string, filterByUser bool) (int, error)

	// Export writes every demand and mark as a legacy snapshot.
	Export(ctx context.Context, w io.Writer, compress bool) error
}
