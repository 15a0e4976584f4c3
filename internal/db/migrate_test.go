package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var cid, notNull, pk int
		var name, typ string
		var dflt sql.NullString
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"demands", "demand_assignees", "completions", "metadata"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_demands_prazo",
		"idx_demands_cadastro",
		"idx_demands_situacao",
		"idx_demands_respondida",
		"idx_demands_observacao",
		"idx_demand_assignees_key",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_DemandsHrefColumn(t *testing.T) {
	db := openTestDB(t)
	assert.Contains(t, columnNames(t, db, "demands"), "href")
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_AssigneesCascadeOnDemandDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO demands (numero, updated_at) VALUES ('7', '2026-10-19T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, InsertAssignees(ctx, db, "7", []string{"Ana", "  ", "Bruno"}))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM demand_assignees WHERE numero = '7'`).Scan(&n))
	assert.Equal(t, 2, n, "blank names are skipped")

	_, err = db.Exec(`DELETE FROM demands WHERE numero = '7'`)
	require.NoError(t, err)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM demand_assignees`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestInsertAssignees_StoresLowercaseKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO demands (numero, updated_at) VALUES ('8', '2026-10-19T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, InsertAssignees(ctx, db, "8", []string{" Maria Silva "}))

	var name, key string
	require.NoError(t, db.QueryRow(`SELECT name, name_key FROM demand_assignees WHERE numero = '8'`).Scan(&name, &key))
	assert.Equal(t, "Maria Silva", name)
	assert.Equal(t, "maria silva", key)
}

func TestOpenDB_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "neuron.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_GivesUpAfterAttempts(t *testing.T) {
	// A regular file where a directory is needed makes every attempt fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	db, err := OpenDB(blocker)
	require.NoError(t, err)
	db.Close()

	opts := OpenOptions{Attempts: 2, Backoff: time.Millisecond, Logger: zerolog.Nop()}
	_, err = Open(context.Background(), filepath.Join(blocker, "sub", "neuron.db"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestOpen_HonorsContext(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	db, err := OpenDB(blocker)
	require.NoError(t, err)
	db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := OpenOptions{Attempts: 5, Backoff: time.Hour, Logger: zerolog.Nop()}
	_, err = Open(ctx, filepath.Join(blocker, "sub", "neuron.db"), opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Succeeds(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath, DefaultOpenOptions())
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping())
}
