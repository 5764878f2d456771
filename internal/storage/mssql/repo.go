// Package mssql implements storage.Repository for SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"pricefeed/internal/normalizer"
	"pricefeed/internal/storage"
)

// SQL Server lacks ON CONFLICT; CREATE TABLE IF NOT EXISTS arrived only in
// recent versions, so existence is checked via OBJECT_ID.
const createOffersSQL = `
IF OBJECT_ID('offers', 'U') IS NULL
CREATE TABLE offers (
    id UNIQUEIDENTIFIER PRIMARY KEY,
    supplier NVARCHAR(200) NOT NULL,
    product_id UNIQUEIDENTIFIER NOT NULL,
    product_name NVARCHAR(1000) NOT NULL,
    product_code NVARCHAR(100) NOT NULL,
    price DECIMAL(18,4) NOT NULL,
    currency NVARCHAR(10) NOT NULL DEFAULT '',
    quantity INT NOT NULL,
    description NVARCHAR(MAX) NOT NULL DEFAULT '',
    product_properties NVARCHAR(MAX) NOT NULL DEFAULT '{}',
    offer_properties NVARCHAR(MAX) NOT NULL DEFAULT '{}',
    created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
    CONSTRAINT uq_offers_supplier_code UNIQUE (supplier, product_code)
);`

// insertOfferSQL dedupes via NOT EXISTS instead of relying on the unique
// constraint error, keeping the batch transaction alive on duplicates.
const insertOfferSQL = `
INSERT INTO offers
    (id, supplier, product_id, product_name, product_code, price, currency,
     quantity, description, product_properties, offer_properties)
SELECT @p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11
WHERE NOT EXISTS (
    SELECT 1 FROM offers WHERE supplier = @p2 AND product_code = @p5
);`

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db *sql.DB
}

// New opens a SQL Server connection pool.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlserver: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close closes the connection pool.
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

// SaveAggregates inserts the batch in one transaction, skipping rows whose
// supplier/code pair already exists.
func (r *Repo) SaveAggregates(ctx context.Context, supplier string, aggs []*normalizer.Aggregate) (int64, error) {
	if len(aggs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, a := range aggs {
		row, err := storage.OfferRow(supplier, a)
		if err != nil {
			return total, err
		}
		res, err := tx.ExecContext(ctx, insertOfferSQL, row...)
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
