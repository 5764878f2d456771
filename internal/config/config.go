// Package config defines the per-supplier configuration documents that drive
// the extraction engine: ordered column rules, named lookup tables, property
// definitions and a small settings block.
//
// All of these objects are loaded once per supplier and treated as read-only
// for the remainder of file processing. They are safe to share across rows.
package config

import (
	"encoding/json"
	"strings"
)

// Classification names the destination of an extracted property.
const (
	ClassProductName     = "product_name"
	ClassProductCode     = "product_code"
	ClassOfferPrice      = "offer_price"
	ClassOfferCurrency   = "offer_currency"
	ClassOfferQuantity   = "offer_quantity"
	ClassOfferDesc       = "offer_description"
	ClassProductProperty = "product_property"
	ClassOfferProperty   = "offer_property"
)

// Write policies for the per-row property bag.
const (
	WriteFirstWins = "first_wins"
	WriteLastWins  = "last_wins"
)

// StepSpec is one step of a column rule: an operation name plus
// operation-specific parameters.
//
// Unknown operation names are not an error; the engine treats them as no-ops.
type StepSpec struct {
	Op      string  `json:"op"`
	Options Options `json:"options"`
}

// ColumnRule binds an ordered step pipeline to one column key. The ID is the
// write provenance recorded in the property bag.
type ColumnRule struct {
	ID     string     `json:"id"`
	Column string     `json:"column"`
	Steps  []StepSpec `json:"steps"`
}

// PropertyDef describes one configured property: where it routes, and the
// raw-value validation applied before any transformation runs.
type PropertyDef struct {
	Name           string   `json:"name"`
	Column         string   `json:"column"`
	Classification string   `json:"classification"`
	Required       bool     `json:"required"`
	SkipRowOnFail  bool     `json:"skip_row_on_fail"`
	AllowedValues  []string `json:"allowed_values"`
	Patterns       []string `json:"patterns"`
}

// SubtitleMapping routes one subtitle key onto a bag property, with an
// explicit per-mapping overwrite flag.
type SubtitleMapping struct {
	Key       string `json:"key"`
	Target    string `json:"target"`
	Overwrite bool   `json:"overwrite"`
}

// Settings is the supplier-wide settings block.
type Settings struct {
	// Culture is the default locale tag for the file ("" means invariant).
	Culture string `json:"culture"`

	// WritePolicy selects first_wins (default) or last_wins for the bag.
	WritePolicy string `json:"write_policy"`

	// StopOnFirstMatch skips a column's remaining rules once one rule for
	// that column key produced at least one assignment.
	StopOnFirstMatch bool `json:"stop_on_first_match"`

	// DescriptionExtraction selects the description-extraction stage:
	// "" or "none" disables it, "regex" enables pattern-based extraction.
	DescriptionExtraction string `json:"description_extraction"`

	// DescriptionPatterns are the patterns used when DescriptionExtraction
	// is "regex". Named capture groups become product properties.
	DescriptionPatterns []string `json:"description_patterns"`

	// NameSynthesisOrder is the preferred property order used to synthesize
	// a product name when no name column produced one.
	NameSynthesisOrder []string `json:"name_synthesis_order"`

	// SubtitleMappings, when present, selects the assignment-mapping
	// subtitle variant. When empty, subtitle pairs become product dynamic
	// properties (never overwriting column-sourced data).
	SubtitleMappings []SubtitleMapping `json:"subtitle_mappings"`

	// SubtitleTable optionally names a lookup table used to normalize
	// subtitle values case-insensitively.
	SubtitleTable string `json:"subtitle_table"`

	// Reader holds format-specific reader options (delimiter, sheet, ...).
	Reader Options `json:"reader"`
}

// Supplier is the root configuration document for one supplier.
type Supplier struct {
	Name       string        `json:"name"`
	Settings   Settings      `json:"settings"`
	Columns    []ColumnRule  `json:"columns"`
	Tables     TableSet      `json:"tables"`
	Properties []PropertyDef `json:"properties"`
}

// TableEntry is one key/value pair of a lookup table. Tables are declared as
// entry lists so that configuration order is preserved; substring-search
// steps depend on iteration order.
type TableEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LookupTable is a named, case-sensitive-by-default mapping from source
// string to replacement string, shared read-only across all rows.
type LookupTable struct {
	keys   []string
	values map[string]string
	lower  map[string]string
	upper  map[string]string
}

// NewLookupTable builds a table from entries in declaration order.
// A duplicate key keeps the first value.
func NewLookupTable(entries []TableEntry) *LookupTable {
	t := &LookupTable{
		values: make(map[string]string, len(entries)),
		lower:  make(map[string]string, len(entries)),
		upper:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if _, exists := t.values[e.Key]; exists {
			continue
		}
		t.keys = append(t.keys, e.Key)
		t.values[e.Key] = e.Value
		// First key wins per folded form too, even when its value is "".
		lk := strings.ToLower(e.Key)
		if _, ok := t.lower[lk]; !ok {
			t.lower[lk] = e.Value
		}
		uk := strings.ToUpper(e.Key)
		if _, ok := t.upper[uk]; !ok {
			t.upper[uk] = e.Value
		}
	}
	return t
}

// Keys returns the table keys in declaration order. The returned slice must
// not be modified.
func (t *LookupTable) Keys() []string { return t.keys }

// Len returns the number of entries.
func (t *LookupTable) Len() int { return len(t.keys) }

// Get resolves key exactly.
func (t *LookupTable) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// GetFold resolves key under the given case folding: "lower", "upper" or
// anything else for exact. Folded lookups fold the probe key only; table keys
// were folded at construction.
func (t *LookupTable) GetFold(key, fold string) (string, bool) {
	switch fold {
	case "lower":
		v, ok := t.lower[strings.ToLower(key)]
		return v, ok
	case "upper":
		v, ok := t.upper[strings.ToUpper(key)]
		return v, ok
	default:
		return t.Get(key)
	}
}

// Fallback returns the empty-string-key entry, used by conditional mapping
// when no candidate token matched.
func (t *LookupTable) Fallback() (string, bool) { return t.Get("") }

// TableSet maps table names to lookup tables.
type TableSet map[string]*LookupTable

// Table resolves a table by name. A missing table is not an error at this
// level; steps referencing it behave as a miss.
func (s TableSet) Table(name string) (*LookupTable, bool) {
	t, ok := s[name]
	return t, ok
}

// UnmarshalJSON decodes {"name": [{"key":..., "value":...}, ...], ...}
// preserving per-table entry order.
func (s *TableSet) UnmarshalJSON(b []byte) error {
	var raw map[string][]TableEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(TableSet, len(raw))
	for name, entries := range raw {
		out[name] = NewLookupTable(entries)
	}
	*s = out
	return nil
}
