package main

import (
	"testing"

	"github.com/shopspring/decimal"

	"pricefeed/internal/config"
	"pricefeed/internal/engine"
	"pricefeed/internal/normalizer"
	"pricefeed/internal/reader"
)

const sampleConfigPath = "../../configs/suppliers/sample.json"

// TestSampleConfigValid guards the shipped default config: every step op must
// be known to the engine and validation must come back clean. A typo'd op
// name would otherwise no-op silently.
func TestSampleConfigValid(t *testing.T) {
	t.Parallel()

	sup, err := config.LoadSupplierFile(sampleConfigPath)
	if err != nil {
		t.Fatalf("LoadSupplierFile() err=%v", err)
	}

	for ci, col := range sup.Columns {
		for si, st := range col.Steps {
			if !engine.IsKnownOp(st.Op) {
				t.Errorf("columns[%d].steps[%d]: unknown op %q", ci, si, st.Op)
			}
		}
	}
	if issues := config.ValidateSupplier(sup, engine.IsKnownOp); len(issues) != 0 {
		t.Fatalf("sample config issues: %v", issues)
	}
}

// TestSampleConfigRow runs one representative row through the sample config
// and checks the brand column actually contributes to the aggregate.
func TestSampleConfigRow(t *testing.T) {
	t.Parallel()

	sup, err := config.LoadSupplierFile(sampleConfigPath)
	if err != nil {
		t.Fatalf("LoadSupplierFile() err=%v", err)
	}
	n := normalizer.New(sup)

	row := reader.NewRow(1, []string{"12345", "CHANEL N5 Eau", "100ml", "12,5", "3"}, true)
	agg, err := n.NormalizeRow(row)
	if err != nil {
		t.Fatalf("NormalizeRow() err=%v", err)
	}
	if agg == nil {
		t.Fatalf("row rejected")
	}

	if got := agg.Product.Properties["Brand"]; got != "CHANEL" {
		t.Fatalf("Brand=%q, want CHANEL", got)
	}
	if got := agg.Product.Properties["Line"]; got != "N5 Eau" {
		t.Fatalf("Line=%q, want N5 Eau", got)
	}
	if agg.Product.Name != "CHANEL N5 Eau" {
		t.Fatalf("Name=%q, want synthesized CHANEL N5 Eau", agg.Product.Name)
	}
	if agg.Product.Properties["Size"] != "100" || agg.Product.Properties["Units"] != "ML" {
		t.Fatalf("size properties=%v", agg.Product.Properties)
	}
	if !agg.Offer.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("Price=%s, want 12.5", agg.Offer.Price)
	}
	if agg.Offer.Quantity != 3 {
		t.Fatalf("Quantity=%d, want 3", agg.Offer.Quantity)
	}
	if !normalizer.Accept(agg) {
		t.Fatalf("sample row not accepted")
	}
}
