// Package storage persists accepted offer aggregates. Backends register
// themselves under a kind string; callers construct one via New and never
// import a concrete backend directly (blank-import storage/all instead).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pricefeed/internal/normalizer"
)

// Config is the minimal configuration needed to create a repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the backend-agnostic persistence interface.
//
// Each backend implements the dedupe semantics in its own idiomatic way
// (Postgres ON CONFLICT, SQLite OR IGNORE, MSSQL NOT EXISTS); the contract is
// that re-saving the same supplier/code pair is a no-op, so reprocessing a
// file is idempotent.
type Repository interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// EnsureSchema creates the offers table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// SaveAggregates persists accepted aggregates for one supplier and
	// returns the number of rows actually written (duplicates excluded).
	SaveAggregates(ctx context.Context, supplier string, aggs []*normalizer.Aggregate) (int64, error)
}

// OfferColumns is the flattened offers-table column list, shared by all
// backends so the row builder and each backend's DDL stay aligned.
var OfferColumns = []string{
	"id",
	"supplier",
	"product_id",
	"product_name",
	"product_code",
	"price",
	"currency",
	"quantity",
	"description",
	"product_properties",
	"offer_properties",
}

// OfferRow flattens one aggregate into values aligned with OfferColumns.
// Dynamic property maps are stored as JSON text; the price travels as its
// decimal string so every driver binds it losslessly.
func OfferRow(supplier string, a *normalizer.Aggregate) ([]any, error) {
	pp, err := json.Marshal(a.Product.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal product properties: %w", err)
	}
	op, err := json.Marshal(a.Offer.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal offer properties: %w", err)
	}
	return []any{
		a.Offer.ID.String(),
		supplier,
		a.Product.ID.String(),
		a.Product.Name,
		a.Product.Code,
		a.Offer.Price.String(),
		a.Offer.Currency,
		a.Offer.Quantity,
		a.Offer.Description,
		string(pp),
		string(op),
	}, nil
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering the
// same kind twice panics, intentionally, to fail fast on ambiguous backend
// selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing storage.Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
