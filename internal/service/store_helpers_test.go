package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/neuron/internal/db"
	"github.com/alexanderramin/neuron/internal/repository"
	"github.com/alexanderramin/neuron/internal/testutil"
)

// fixedNow is Monday 19/10/2026.
var fixedNow = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestStore(t *testing.T, opts ...StoreOption) (DemandStore, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newStoreWithUoW(database, testutil.NewTestUoW(database), opts...), database
}

func newStoreWithUoW(database *sql.DB, uow db.UnitOfWork, opts ...StoreOption) DemandStore {
	opts = append([]StoreOption{WithStoreClock(fixedClock)}, opts...)
	return NewDemandStore(
		repository.NewSQLiteDemandRepo(database),
		repository.NewSQLiteCompletionRepo(database),
		repository.NewSQLiteMetadataRepo(database),
		uow,
		opts...,
	)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Name)
	}
	return out
}
