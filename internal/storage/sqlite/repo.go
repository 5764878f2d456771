// Package sqlite implements storage.Repository on the pure-Go modernc
// driver. Useful for local ingest runs and tests that want a real database
// without a server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"pricefeed/internal/normalizer"
	"pricefeed/internal/storage"
)

const createOffersSQL = `
CREATE TABLE IF NOT EXISTS offers (
    id TEXT PRIMARY KEY,
    supplier TEXT NOT NULL,
    product_id TEXT NOT NULL,
    product_name TEXT NOT NULL,
    product_code TEXT NOT NULL,
    price TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    product_properties TEXT NOT NULL DEFAULT '{}',
    offer_properties TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (supplier, product_code)
);`

// Repo implements storage.Repository for SQLite.
type Repo struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.DSN, err)
	}
	return &Repo{db: db}, nil
}

// Close closes the database handle.
func (r *Repo) Close() {
	_ = r.db.Close()
}

// EnsureSchema creates the offers table. Idempotent.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createOffersSQL); err != nil {
		return fmt.Errorf("create offers table: %w", err)
	}
	return nil
}

// SaveAggregates inserts the batch in one transaction. INSERT OR IGNORE
// gives the same idempotency as the Postgres ON CONFLICT path: duplicate
// supplier/code pairs are silently skipped.
func (r *Repo) SaveAggregates(ctx context.Context, supplier string, aggs []*normalizer.Aggregate) (int64, error) {
	if len(aggs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertOfferSQL())
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total int64
	for _, a := range aggs {
		row, err := storage.OfferRow(supplier, a)
		if err != nil {
			return total, err
		}
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return total, fmt.Errorf("insert offer code=%s: %w", a.Product.Code, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return total, err
	}
	return total, nil
}

// insertOfferSQL renders the OR IGNORE insert for OfferColumns. Pure, so the
// column/placeholder alignment is testable without a database.
func insertOfferSQL() string {
	cols := storage.OfferColumns
	ph := make([]string, len(cols))
	for i := range ph {
		ph[i] = "?"
	}
	return fmt.Sprintf("INSERT OR IGNORE INTO offers (%s) VALUES (%s);",
		strings.Join(cols, ", "), strings.Join(ph, ", "))
}
