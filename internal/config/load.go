package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadSupplierFile loads and decodes a supplier configuration JSON file.
func LoadSupplierFile(path string) (*Supplier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open supplier config: %w", err)
	}
	defer f.Close()
	return LoadSupplier(f)
}

// LoadSupplier decodes a supplier configuration document from r.
func LoadSupplier(r io.Reader) (*Supplier, error) {
	var s Supplier
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode supplier config: %w", err)
	}
	if s.Tables == nil {
		s.Tables = TableSet{}
	}
	if s.Settings.WritePolicy == "" {
		s.Settings.WritePolicy = WriteFirstWins
	}
	return &s, nil
}

// LoadCatalogFile loads a market-wide property catalog: a bare list of
// property definitions shared by all suppliers of a market.
func LoadCatalogFile(path string) ([]PropertyDef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property catalog: %w", err)
	}
	var defs []PropertyDef
	if err := json.Unmarshal(b, &defs); err != nil {
		return nil, fmt.Errorf("decode property catalog: %w", err)
	}
	return defs, nil
}

// MergeProperties merges a market-wide catalog into supplier-specific
// definitions. Supplier definitions take precedence; catalog entries fill in
// properties the supplier did not declare. Order: supplier definitions first
// (declaration order), then remaining catalog entries.
func MergeProperties(catalog, supplier []PropertyDef) []PropertyDef {
	out := make([]PropertyDef, 0, len(catalog)+len(supplier))
	seen := make(map[string]bool, len(supplier))
	for _, d := range supplier {
		out = append(out, d)
		seen[d.Name] = true
	}
	for _, d := range catalog {
		if seen[d.Name] {
			continue
		}
		out = append(out, d)
	}
	return out
}
