package storage

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pricefeed/internal/normalizer"
)

func testAggregate() *normalizer.Aggregate {
	a := normalizer.NewAggregate()
	a.Product.Name = "Chanel No5"
	a.Product.Code = "12345"
	a.Product.SetProperty("Brand", "Chanel")
	a.Offer.Price = decimal.RequireFromString("100.5")
	a.Offer.Currency = "EUR"
	a.Offer.Quantity = 3
	a.Offer.Description = "100 ml spray"
	a.Offer.SetProperty("BoxSize", "6")
	return a
}

func TestOfferRow(t *testing.T) {
	t.Parallel()

	a := testAggregate()
	row, err := OfferRow("acme", a)
	if err != nil {
		t.Fatalf("OfferRow() err=%v", err)
	}
	if len(row) != len(OfferColumns) {
		t.Fatalf("len(row)=%d, want %d columns", len(row), len(OfferColumns))
	}

	at := func(col string) any {
		for i, c := range OfferColumns {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("column %q not in OfferColumns", col)
		return nil
	}

	if at("id") != a.Offer.ID.String() || at("product_id") != a.Product.ID.String() {
		t.Fatalf("ids=%v/%v", at("id"), at("product_id"))
	}
	if at("supplier") != "acme" || at("product_code") != "12345" {
		t.Fatalf("supplier=%v code=%v", at("supplier"), at("product_code"))
	}
	if at("price") != "100.5" {
		t.Fatalf("price=%v, want decimal string 100.5", at("price"))
	}
	if at("quantity") != 3 {
		t.Fatalf("quantity=%v", at("quantity"))
	}

	var pp map[string]string
	if err := json.Unmarshal([]byte(at("product_properties").(string)), &pp); err != nil {
		t.Fatalf("product_properties not JSON: %v", err)
	}
	if !reflect.DeepEqual(pp, map[string]string{"Brand": "Chanel"}) {
		t.Fatalf("product_properties=%v", pp)
	}
	var op map[string]string
	if err := json.Unmarshal([]byte(at("offer_properties").(string)), &op); err != nil {
		t.Fatalf("offer_properties not JSON: %v", err)
	}
	if op["BoxSize"] != "6" {
		t.Fatalf("offer_properties=%v", op)
	}
}

type fakeRepo struct{ dsn string }

func (f *fakeRepo) Close()                               {}
func (f *fakeRepo) EnsureSchema(context.Context) error   { return nil }
func (f *fakeRepo) SaveAggregates(context.Context, string, []*normalizer.Aggregate) (int64, error) {
	return 0, nil
}

func TestNewDispatchesToFactory(t *testing.T) {
	// Registers a global factory; not parallel.
	Register("fake", func(_ context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{dsn: cfg.DSN}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "fake", DSN: "dsn://x"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if fr, ok := repo.(*fakeRepo); !ok || fr.dsn != "dsn://x" {
		t.Fatalf("repo=%#v", repo)
	}
}

func TestNewUnsupportedKind(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{Kind: "tape"}); err == nil ||
		!strings.Contains(err.Error(), "unsupported storage.kind=tape") {
		t.Fatalf("err=%v", err)
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("empty kind accepted")
	}
}

func TestRegisterPanics(t *testing.T) {
	t.Parallel()

	mustPanic := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Fatalf("%s did not panic", name)
			}
		}()
		fn()
	}

	mustPanic("empty kind", func() { Register("", func(context.Context, Config) (Repository, error) { return nil, nil }) })
	mustPanic("nil factory", func() { Register("nilfactory", nil) })
}
