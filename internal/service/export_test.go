package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/alexanderramin/neuron/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_RoundTripsThroughMigration(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t)

	require.NoError(t, src.PutMany(ctx, []*domain.Demand{
		testutil.NewTestDemand("1", testutil.WithPrazoText("30/10/2026"), testutil.WithResponsaveis("Ana")),
		testutil.NewTestDemand("2", testutil.WithSituacao("Prorrogada"), testutil.WithHref("/d/2")),
	}))
	require.NoError(t, src.MarkComplete(ctx, "2", true))

	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, src.Export(ctx, &buf, compress))

		snap, err := legacy.Decode(&buf)
		require.NoError(t, err)

		dst, _ := newTestStore(t)
		migrated, err := dst.MigrateFromLegacyStore(ctx, legacy.MemorySource{Snapshot: snap})
		require.NoError(t, err)
		require.True(t, migrated)

		got, err := dst.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "30/10/2026", got.Prazo)
		assert.Equal(t, []string{"Ana"}, got.Responsaveis)

		got, err = dst.Get(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "/d/2", got.Href)

		done, err := dst.IsComplete(ctx, "2")
		require.NoError(t, err)
		assert.True(t, done)
	}
}
