// Package postgres implements storage.Repository on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"pricefeed/internal/normalizer"
	"pricefeed/internal/storage"
)

const createOffersSQL = `
CREATE TABLE IF NOT EXISTS offers (
    id UUID PRIMARY KEY,
    supplier TEXT NOT NULL,
    product_id UUID NOT NULL,
    product_name TEXT NOT NULL,
    product_code TEXT NOT NULL,
    price NUMERIC(18,4) NOT NULL,
    currency TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    product_properties JSONB NOT NULL DEFAULT '{}',
    offer_properties JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (supplier, product_code)
);`

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed Repo.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureSchema creates the offers table. Idempotent.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createOffersSQL); err != nil {
		return fmt.Errorf("create offers table: %w", err)
	}
	return nil
}

// SaveAggregates performs one bulk INSERT for the whole batch.
//
// Duplicate supplier/code pairs are skipped via ON CONFLICT DO NOTHING, both
// within the batch and across reprocessing runs, so re-ingesting a file never
// fails on unique violations.
func (r *Repo) SaveAggregates(ctx context.Context, supplier string, aggs []*normalizer.Aggregate) (int64, error) {
	if len(aggs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(aggs))
	for _, a := range aggs {
		row, err := storage.OfferRow(supplier, a)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	sql, args := buildInsertSQL("offers", storage.OfferColumns, rows, []string{"supplier", "product_code"})
	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert offers: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// buildInsertSQL constructs a single multi-row INSERT and its args.
//
// It is pure and deterministic, so placeholder numbering and the ON CONFLICT
// clause are unit-testable without a database. Every row must align with
// columns.
func buildInsertSQL(table string, columns []string, rows [][]any, dedupeColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("$%d", p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	if len(dedupeColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		for i, c := range dedupeColumns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pgIdent(c))
		}
		b.WriteString(") DO NOTHING")
	}

	b.WriteString(";")
	return b.String(), args
}

// pgIdent quotes an identifier. Internal doubles are escaped; column names
// here come from OfferColumns, not user input, so this is belt-and-braces.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
