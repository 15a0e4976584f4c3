package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillAssignees(db); err != nil {
		return fmt.Errorf("backfilling demand assignees: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS demands (
		numero        TEXT PRIMARY KEY,
		prazo         TEXT NOT NULL DEFAULT '',
		data_cadastro TEXT NOT NULL DEFAULT '',
		situacao      TEXT NOT NULL DEFAULT '',
		responsaveis  TEXT NOT NULL DEFAULT '[]',
		possivel_respondida INTEGER NOT NULL DEFAULT 0,
		possivel_observacao INTEGER NOT NULL DEFAULT 0,
		prazo_ts      INTEGER,
		cadastro_ts   INTEGER,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_demands_prazo ON demands(prazo_ts)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_cadastro ON demands(cadastro_ts)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_situacao ON demands(situacao)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_respondida ON demands(possivel_respondida)`,
	`CREATE INDEX IF NOT EXISTS idx_demands_observacao ON demands(possivel_observacao)`,

	// One row per (demand, assignee) so assignee lookups can use an index.
	`CREATE TABLE IF NOT EXISTS demand_assignees (
		numero   TEXT NOT NULL REFERENCES demands(numero) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name     TEXT NOT NULL,
		name_key TEXT NOT NULL,
		PRIMARY KEY (numero, position)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_demand_assignees_key ON demand_assignees(name_key)`,

	`CREATE TABLE IF NOT EXISTS completions (
		numero     TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS metadata (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Deep link to the demand page.
	`ALTER TABLE demands ADD COLUMN href TEXT NOT NULL DEFAULT ''`,
}

// migrateBackfillAssignees fills demand_assignees for demands written before
// the table existed. Idempotent: only demands with assignees but no rows in
// demand_assignees are touched.
func migrateBackfillAssignees(db *sql.DB) error {
	ctx := context.Background()

	rows, err := db.QueryContext(ctx, `SELECT d.numero, d.responsaveis FROM demands d
		WHERE d.responsaveis != '[]'
		  AND NOT EXISTS (SELECT 1 FROM demand_assignees a WHERE a.numero = d.numero)`)
	if err != nil {
		return fmt.Errorf("listing demands without assignee rows: %w", err)
	}
	pending := map[string][]string{}
	for rows.Next() {
		var numero, raw string
		if err := rows.Scan(&numero, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("scanning demand: %w", err)
		}
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			rows.Close()
			return fmt.Errorf("decoding responsaveis of %s: %w", numero, err)
		}
		pending[numero] = names
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterating demands: %w", err)
	}
	rows.Close()

	if len(pending) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting backfill transaction: %w", err)
	}
	for numero, names := range pending {
		if err := InsertAssignees(ctx, tx, numero, names); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing assignee backfill: %w", err)
	}
	return nil
}

// InsertAssignees writes the assignee index rows for one demand. Blank names
// are skipped; positions keep the original order.
func InsertAssignees(ctx context.Context, conn DBTX, numero string, names []string) error {
	for i, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO demand_assignees (numero, position, name, name_key) VALUES (?, ?, ?, ?)`,
			numero, i, trimmed, strings.ToLower(trimmed)); err != nil {
			return fmt.Errorf("inserting assignee %q of %s: %w", trimmed, numero, err)
		}
	}
	return nil
}
