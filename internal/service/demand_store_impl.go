package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/db"
	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/alexanderramin/neuron/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// LastMigrationKey holds the domain.MigrationMetadata of the legacy import.
	LastMigrationKey = "lastMigration"
	migrationVersion = "1.0"
)

type demandStore struct {
	demands     repository.DemandRepo
	completions repository.CompletionRepo
	metadata    repository.MetadataRepo
	uow         db.UnitOfWork

	thresholds Thresholds
	cache      StatsCache
	observer   UseCaseObserver
	logger     zerolog.Logger
	now        func() time.Time
}

type StoreOption func(*demandStore)

func WithThresholds(th Thresholds) StoreOption {
	return func(s *demandStore) { s.thresholds = th }
}

func WithStatsCache(c StatsCache) StoreOption {
	return func(s *demandStore) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithObserver(o UseCaseObserver) StoreOption {
	return func(s *demandStore) { s.observer = useCaseObserverOrNoop([]UseCaseObserver{o}) }
}

func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *demandStore) { s.logger = l }
}

// WithStoreClock replaces time.Now; "today" for stats is its calendar day.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *demandStore) { s.now = now }
}

// NewDemandStore builds a store over repos bound to the database and a unit
// of work on the same database for multi-record writes.
func NewDemandStore(
	demands repository.DemandRepo,
	completions repository.CompletionRepo,
	metadata repository.MetadataRepo,
	uow db.UnitOfWork,
	opts ...StoreOption,
) DemandStore {
	s := &demandStore{
		demands:     demands,
		completions: completions,
		metadata:    metadata,
		uow:         uow,
		thresholds:  DefaultThresholds(),
		cache:       NoopStatsCache{},
		observer:    NoopUseCaseObserver{},
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *demandStore) today() dates.Date {
	return dates.FromTime(s.now())
}

func (s *demandStore) Put(ctx context.Context, d *domain.Demand) error {
	return s.PutMany(ctx, []*domain.Demand{d})
}

func (s *demandStore) PutMany(ctx context.Context, demands []*domain.Demand) (err error) {
	if len(demands) == 0 {
		return nil
	}
	for _, d := range demands {
		if d == nil || strings.TrimSpace(d.Numero) == "" {
			return fmt.Errorf("put: numero is required: %w", ErrInvalidDemand)
		}
	}
	done := s.observe(ctx, "put-demands", map[string]any{"count": len(demands)})
	defer func() { done(err) }()

	now := s.now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDemands := repository.NewSQLiteDemandRepo(tx)
		for _, d := range demands {
			d.UpdatedAt = now
			if err := txDemands.Upsert(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("put", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) Get(ctx context.Context, numero string) (*domain.Demand, error) {
	d, err := s.demands.GetByNumero(ctx, numero)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("demand %s: %w", numero, ErrDemandNotFound)
		}
		return nil, storageErr("get", err)
	}
	return d, nil
}

func (s *demandStore) Count(ctx context.Context) (int, error) {
	n, err := s.demands.Count(ctx)
	if err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

func (s *demandStore) GetAll(ctx context.Context) ([]*domain.Demand, error) {
	all, err := s.demands.ListAll(ctx)
	if err != nil {
		return nil, storageErr("get all", err)
	}
	return all, nil
}

func (s *demandStore) GetAllByKey(ctx context.Context) (map[string]*domain.Demand, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*domain.Demand, len(all))
	for _, d := range all {
		byKey[d.Numero] = d
	}
	return byKey, nil
}

func (s *demandStore) List(ctx context.Context, f domain.DemandFilter) ([]*domain.Demand, error) {
	list, err := s.demands.List(ctx, f)
	if err != nil {
		return nil, storageErr("list", err)
	}
	return list, nil
}

func (s *demandStore) Delete(ctx context.Context, numero string) error {
	if err := s.demands.Delete(ctx, numero); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("demand %s: %w", numero, ErrDemandNotFound)
		}
		return storageErr("delete", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) ClearDemands(ctx context.Context) error {
	if err := s.demands.DeleteAll(ctx); err != nil {
		return storageErr("clear demands", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) ClearCompletions(ctx context.Context) error {
	if err := s.completions.DeleteAll(ctx); err != nil {
		return storageErr("clear completions", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) ClearAll(ctx context.Context) (err error) {
	done := s.observe(ctx, "clear-all", nil)
	defer func() { done(err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteDemandRepo(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return repository.NewSQLiteCompletionRepo(tx).DeleteAll(ctx)
	})
	if err != nil {
		return storageErr("clear all", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) MarkComplete(ctx context.Context, numero string, done bool) error {
	var err error
	if done {
		err = s.completions.Mark(ctx, numero, s.now().UTC())
	} else {
		err = s.completions.Unmark(ctx, numero)
	}
	if err != nil {
		return storageErr("mark complete", err)
	}
	s.cache.Clear()
	return nil
}

func (s *demandStore) IsComplete(ctx context.Context, numero string) (bool, error) {
	ok, err := s.completions.IsMarked(ctx, numero)
	if err != nil {
		return false, storageErr("is complete", err)
	}
	return ok, nil
}

func (s *demandStore) GetCompletedSet(ctx context.Context) (map[string]struct{}, error) {
	marks, err := s.completions.List(ctx)
	if err != nil {
		return nil, storageErr("completed set", err)
	}
	return markSet(marks), nil
}

func markSet(marks []domain.CompletionMark) map[string]struct{} {
	set := make(map[string]struct{}, len(marks))
	for _, m := range marks {
		set[m.Numero] = struct{}{}
	}
	return set
}

func (s *demandStore) NeedsMigration(ctx context.Context) (bool, error) {
	ok, err := s.metadata.Exists(ctx, LastMigrationKey)
	if err != nil {
		return false, storageErr("needs migration", err)
	}
	return !ok, nil
}

func (s *demandStore) MigrateFromLegacyStore(ctx context.Context, src legacy.Source) (migrated bool, err error) {
	fields := map[string]any{}
	done := s.observe(ctx, "migrate-legacy", fields)
	defer func() { done(err) }()

	needed, err := s.NeedsMigration(ctx)
	if err != nil {
		return false, &MigrationError{Stage: "checking migration state", Err: err}
	}
	if !needed {
		s.logger.Debug().Msg("legacy migration already completed")
		return false, nil
	}

	snap, err := src.Load(ctx)
	if err != nil {
		return false, &MigrationError{Stage: "loading legacy snapshot", Err: err}
	}

	demands := snap.DemandList()
	completed := uniqueNumeros(snap.Completed)
	now := s.now().UTC()
	meta := domain.MigrationMetadata{
		RunID:             uuid.New().String(),
		Timestamp:         now,
		Version:           migrationVersion,
		DemandsMigrated:   len(demands),
		CompletedMigrated: len(completed),
	}

	alreadyDone := false
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txMetadata := repository.NewSQLiteMetadataRepo(tx)
		// Another process may have finished the import since the check above.
		exists, err := txMetadata.Exists(ctx, LastMigrationKey)
		if err != nil {
			return err
		}
		if exists {
			alreadyDone = true
			return nil
		}

		txDemands := repository.NewSQLiteDemandRepo(tx)
		for _, d := range demands {
			d.UpdatedAt = now
			if err := txDemands.Upsert(ctx, d); err != nil {
				return err
			}
		}
		txCompletions := repository.NewSQLiteCompletionRepo(tx)
		for _, numero := range completed {
			if err := txCompletions.Mark(ctx, numero, now); err != nil {
				return err
			}
		}
		return txMetadata.Set(ctx, LastMigrationKey, meta, now)
	})
	if err != nil {
		return false, &MigrationError{Stage: "writing migrated records", Err: storageErr("migrate", err)}
	}
	if alreadyDone {
		return false, nil
	}

	s.cache.Clear()
	fields["run_id"] = meta.RunID
	fields["demands"] = meta.DemandsMigrated
	fields["completed"] = meta.CompletedMigrated
	s.logger.Info().
		Str("run_id", meta.RunID).
		Int("demands", meta.DemandsMigrated).
		Int("completed", meta.CompletedMigrated).
		Msg("legacy store migrated")
	return true, nil
}

func uniqueNumeros(numeros []string) []string {
	seen := make(map[string]struct{}, len(numeros))
	out := make([]string, 0, len(numeros))
	for _, n := range numeros {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// LastMigration returns nil, nil when no migration has run.
func (s *demandStore) LastMigration(ctx context.Context) (*domain.MigrationMetadata, error) {
	var meta domain.MigrationMetadata
	if err := s.metadata.Get(ctx, LastMigrationKey, &meta); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, storageErr("last migration", err)
	}
	return &meta, nil
}

func (s *demandStore) GetMetadata(ctx context.Context, key string, dst any) error {
	if err := s.metadata.Get(ctx, key, dst); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return storageErr("get metadata", err)
	}
	return nil
}

func (s *demandStore) SetMetadata(ctx context.Context, key string, value any) error {
	if err := s.metadata.Set(ctx, key, value, s.now().UTC()); err != nil {
		return storageErr("set metadata", err)
	}
	return nil
}

func (s *demandStore) GetStats(ctx context.Context) (stats *domain.Statistics, err error) {
	today := s.today()
	day := dates.Format(today)
	if cached, ok := s.cache.Get(day); ok {
		return cached, nil
	}

	done := s.observe(ctx, "stats", map[string]any{"day": day})
	defer func() { done(err) }()

	demands, marks, err := s.readBoth(ctx)
	if err != nil {
		return nil, storageErr("stats", err)
	}

	stats = computeStats(demands, markSet(marks), today, s.thresholds)
	s.cache.Set(day, stats)
	return stats, nil
}

func (s *demandStore) IsRelevantForNotification(d *domain.Demand) bool {
	return isRelevant(d, s.today(), s.thresholds)
}

func (s *demandStore) NotificationCount(ctx context.Context, user string, filterByUser bool) (int, error) {
	demands, marks, err := s.readBoth(ctx)
	if err != nil {
		return 0, storageErr("notification count", err)
	}

	completed := markSet(marks)
	today := s.today()
	byUser := filterByUser && user != ""
	count := 0
	for _, d := range demands {
		if byUser && !d.AssignedTo(user) {
			continue
		}
		if _, ok := completed[d.Numero]; ok {
			continue
		}
		if isRelevant(d, today, s.thresholds) {
			count++
		}
	}
	return count, nil
}

func (s *demandStore) Export(ctx context.Context, w io.Writer, compress bool) (err error) {
	done := s.observe(ctx, "export", map[string]any{"compressed": compress})
	defer func() { done(err) }()

	demands, marks, err := s.readBoth(ctx)
	if err != nil {
		return storageErr("export", err)
	}
	return legacy.Encode(w, legacy.FromDemands(demands, marks), compress)
}

// readBoth reads demands and completion marks in one transaction so neither
// list reflects a half-applied batch.
func (s *demandStore) readBoth(ctx context.Context) ([]*domain.Demand, []domain.CompletionMark, error) {
	var demands []*domain.Demand
	var marks []domain.CompletionMark
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		if demands, err = repository.NewSQLiteDemandRepo(tx).ListAll(ctx); err != nil {
			return err
		}
		marks, err = repository.NewSQLiteCompletionRepo(tx).List(ctx)
		return err
	})
	return demands, marks, err
}
