package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/alexanderramin/neuron/internal/db"
	"github.com/alexanderramin/neuron/internal/domain"
)

const demandColumns = `d.numero, d.prazo, d.data_cadastro, d.situacao, d.responsaveis,
	d.possivel_respondida, d.possivel_observacao, d.href, d.prazo_ts, d.cadastro_ts, d.updated_at`

// SQLiteDemandRepo implements DemandRepo. Upsert issues several statements,
// so callers writing through a *sql.DB should wrap it in a transaction.
type SQLiteDemandRepo struct {
	db db.DBTX
}

func NewSQLiteDemandRepo(conn db.DBTX) *SQLiteDemandRepo {
	return &SQLiteDemandRepo{db: conn}
}

func (r *SQLiteDemandRepo) Upsert(ctx context.Context, d *domain.Demand) error {
	if strings.TrimSpace(d.Numero) == "" {
		return fmt.Errorf("upserting demand: numero is required: %w", ErrInvalidDemand)
	}
	d.PrazoTimestamp = dayTimestamp(d.Prazo)
	d.CadastroTimestamp = dayTimestamp(d.DataCadastro)

	names, err := encodeNames(d.Responsaveis)
	if err != nil {
		return fmt.Errorf("encoding responsaveis of %s: %w", d.Numero, err)
	}

	query := `INSERT INTO demands (numero, prazo, data_cadastro, situacao, responsaveis,
			possivel_respondida, possivel_observacao, href, prazo_ts, cadastro_ts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(numero) DO UPDATE SET
			prazo = excluded.prazo,
			data_cadastro = excluded.data_cadastro,
			situacao = excluded.situacao,
			responsaveis = excluded.responsaveis,
			possivel_respondida = excluded.possivel_respondida,
			possivel_observacao = excluded.possivel_observacao,
			href = excluded.href,
			prazo_ts = excluded.prazo_ts,
			cadastro_ts = excluded.cadastro_ts,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		d.Numero,
		d.Prazo,
		d.DataCadastro,
		d.Situacao,
		names,
		boolToInt(d.PossivelRespondida),
		boolToInt(d.PossivelObservacao),
		d.Href,
		nullableInt64(d.PrazoTimestamp),
		nullableInt64(d.CadastroTimestamp),
		formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting demand %s: %w", d.Numero, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM demand_assignees WHERE numero = ?`, d.Numero); err != nil {
		return fmt.Errorf("clearing assignees of %s: %w", d.Numero, err)
	}
	return db.InsertAssignees(ctx, r.db, d.Numero, d.Responsaveis)
}

func (r *SQLiteDemandRepo) GetByNumero(ctx context.Context, numero string) (*domain.Demand, error) {
	query := `SELECT ` + demandColumns + ` FROM demands d WHERE d.numero = ?`
	d, err := scanDemand(r.db.QueryRowContext(ctx, query, numero))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("demand %s: %w", numero, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning demand: %w", err)
	}
	return d, nil
}

func (r *SQLiteDemandRepo) ListAll(ctx context.Context) ([]*domain.Demand, error) {
	return r.List(ctx, domain.DemandFilter{})
}

// List returns demands matching every set field of f, ordered by numero.
func (r *SQLiteDemandRepo) List(ctx context.Context, f domain.DemandFilter) ([]*domain.Demand, error) {
	query, args, err := demandFilterQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building demand query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing demands: %w", err)
	}
	defer rows.Close()

	demands := make([]*domain.Demand, 0)
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning demand: %w", err)
		}
		demands = append(demands, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating demands: %w", err)
	}
	return demands, nil
}

func demandFilterQuery(f domain.DemandFilter) squirrel.SelectBuilder {
	q := squirrel.
		Select(demandColumns).
		From("demands d").
		OrderBy("d.numero ASC").
		PlaceholderFormat(squirrel.Question)

	if f.PrazoFrom != nil {
		q = q.Where(squirrel.GtOrEq{"d.prazo_ts": *f.PrazoFrom})
	}
	if f.PrazoTo != nil {
		q = q.Where(squirrel.LtOrEq{"d.prazo_ts": *f.PrazoTo})
	}
	if f.CadastroFrom != nil {
		q = q.Where(squirrel.GtOrEq{"d.cadastro_ts": *f.CadastroFrom})
	}
	if f.CadastroTo != nil {
		q = q.Where(squirrel.LtOrEq{"d.cadastro_ts": *f.CadastroTo})
	}
	if f.SituacaoContains != "" {
		// instr is case-sensitive, matching how situacao is tested in Go.
		q = q.Where(squirrel.Expr("instr(d.situacao, ?) > 0", f.SituacaoContains))
	}
	if key := strings.ToLower(strings.TrimSpace(f.Assignee)); key != "" {
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM demand_assignees a WHERE a.numero = d.numero AND a.name_key = ?)", key))
	}
	if f.PossivelRespondida != nil {
		q = q.Where(squirrel.Eq{"d.possivel_respondida": boolToInt(*f.PossivelRespondida)})
	}
	if f.PossivelObservacao != nil {
		q = q.Where(squirrel.Eq{"d.possivel_observacao": boolToInt(*f.PossivelObservacao)})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func (r *SQLiteDemandRepo) Delete(ctx context.Context, numero string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM demands WHERE numero = ?`, numero)
	if err != nil {
		return fmt.Errorf("deleting demand %s: %w", numero, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting demand %s: %w", numero, err)
	}
	if n == 0 {
		return fmt.Errorf("demand %s: %w", numero, ErrNotFound)
	}
	return nil
}

func (r *SQLiteDemandRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM demands`); err != nil {
		return fmt.Errorf("clearing demands: %w", err)
	}
	return nil
}

func (r *SQLiteDemandRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM demands`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting demands: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDemand(s scanner) (*domain.Demand, error) {
	var d domain.Demand
	var names, updatedAt string
	var respondida, observacao int
	var prazoTS, cadastroTS sql.NullInt64

	if err := s.Scan(
		&d.Numero,
		&d.Prazo,
		&d.DataCadastro,
		&d.Situacao,
		&names,
		&respondida,
		&observacao,
		&d.Href,
		&prazoTS,
		&cadastroTS,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	responsaveis, err := decodeNames(names)
	if err != nil {
		return nil, fmt.Errorf("decoding responsaveis of %s: %w", d.Numero, err)
	}
	d.Responsaveis = responsaveis
	d.PossivelRespondida = intToBool(respondida)
	d.PossivelObservacao = intToBool(observacao)
	d.PrazoTimestamp = int64Ptr(prazoTS)
	d.CadastroTimestamp = int64Ptr(cadastroTS)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}
