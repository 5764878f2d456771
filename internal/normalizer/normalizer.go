package normalizer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pricefeed/internal/config"
	"pricefeed/internal/parser"
	"pricefeed/internal/reader"
)

// reNumericCode is the row validity gate on the identifier code: one or more
// decimal digits, nothing else.
var reNumericCode = regexp.MustCompile(`^\d+$`)

// Bag keys of the Category.PropertyName convention.
const (
	keyProductName = "Product.Name"
	keyProductCode = "Product.Code"
	keyOfferPrice  = "Offer.Price"
	keyOfferCurr   = "Offer.Currency"
	keyOfferQty    = "Offer.Quantity"
	keyOfferDesc   = "Offer.Description"
)

// compiledProperty is a property definition with its validation artifacts
// resolved: the allowed-value set upper-folded, the patterns compiled
// case-insensitively. Invalid patterns are dropped (checked as no-ops).
type compiledProperty struct {
	def      config.PropertyDef
	allowed  map[string]bool
	patterns []*regexp.Regexp
}

// Normalizer turns one parsed row into an output aggregate, or rejects it.
// Built once per supplier; safe for reuse across rows.
type Normalizer struct {
	settings config.Settings
	engine   *parser.Engine

	props       []compiledProperty
	propsByName map[string]int

	subtitleTable *config.LookupTable
	desc          DescriptionExtractor
}

// New builds a normalizer for one supplier. Property definitions should
// already be merged with any market-wide catalog (config.MergeProperties).
func New(sup *config.Supplier) *Normalizer {
	n := &Normalizer{
		settings:    sup.Settings,
		engine:      parser.NewEngine(sup),
		propsByName: make(map[string]int, len(sup.Properties)),
		desc:        newDescriptionExtractor(sup.Settings),
	}

	for _, def := range sup.Properties {
		cp := compiledProperty{def: def}
		if len(def.AllowedValues) > 0 {
			cp.allowed = make(map[string]bool, len(def.AllowedValues))
			for _, v := range def.AllowedValues {
				cp.allowed[strings.ToUpper(v)] = true
			}
		}
		for _, p := range def.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				continue
			}
			cp.patterns = append(cp.patterns, re)
		}
		n.propsByName[def.Name] = len(n.props)
		n.props = append(n.props, cp)
	}

	if sup.Settings.SubtitleTable != "" {
		n.subtitleTable, _ = sup.Tables.Table(sup.Settings.SubtitleTable)
	}

	return n
}

// NormalizeRow processes one row end to end: raw-value validation, rule
// execution, subtitle application, classification routing, the validity
// gate and name synthesis.
//
// A nil aggregate with a nil error means the row was rejected (validation
// skip or validity gate); the caller counts it as skipped.
func (n *Normalizer) NormalizeRow(row reader.Row) (*Aggregate, error) {
	// Validation runs against raw, untransformed cell values. A failure
	// either drops the single column or aborts the whole row, per the
	// property's configured policy.
	skipColumns := make(map[string]bool)
	for _, cp := range n.props {
		if cp.def.Column == "" {
			continue
		}
		if n.validateColumn(cp, row) {
			continue
		}
		if cp.def.SkipRowOnFail {
			return nil, nil
		}
		skipColumns[cp.def.Column] = true
	}

	bag := n.engine.ParseRow(row, nil, skipColumns)

	if len(n.settings.SubtitleMappings) > 0 {
		n.applySubtitleMappings(bag, row.Subtitle)
	}

	agg := NewAggregate()
	n.route(bag, agg)

	// Row validity gate: the identifier code must be present and numeric.
	if !reNumericCode.MatchString(agg.Product.Code) {
		return nil, nil
	}

	if n.desc != nil {
		n.desc.Extract(agg)
	}

	if len(n.settings.SubtitleMappings) == 0 {
		n.applySubtitleDefaults(agg.Product, row.Subtitle)
	}

	if agg.Product.Name == "" {
		agg.Product.Name = n.synthesizeName(agg.Product)
	}

	return agg, nil
}

// validateColumn reports whether the raw cell value passes the property's
// required/allowed-values/pattern checks. Comparisons are case-insensitive.
func (n *Normalizer) validateColumn(cp compiledProperty, row reader.Row) bool {
	raw, present := row.Value(cp.def.Column)
	raw = strings.TrimSpace(raw)

	if cp.def.Required && (!present || raw == "") {
		return false
	}
	if !present || raw == "" {
		// Nothing further to check on an empty optional value.
		return true
	}

	if cp.allowed != nil && !cp.allowed[strings.ToUpper(raw)] {
		return false
	}
	for _, re := range cp.patterns {
		if !re.MatchString(raw) {
			return false
		}
	}
	return true
}

// applySubtitleMappings is the assignment-mapping subtitle variant: each
// configured mapping routes one subtitle key onto a bag property, honoring
// its explicit overwrite flag.
func (n *Normalizer) applySubtitleMappings(bag *parser.Bag, subtitle map[string]string) {
	for _, m := range n.settings.SubtitleMappings {
		v, ok := subtitle[m.Key]
		if !ok {
			continue
		}
		v = n.normalizeSubtitleValue(v)
		if _, exists := bag.Get(m.Target); exists && !m.Overwrite {
			continue
		}
		bag.Force(m.Target, v, parser.SeedSource)
	}
}

// applySubtitleDefaults is the dynamic-property subtitle variant: each pair
// is normalized to a compact key and written into the product's dynamic
// properties only if that key is not already present. Subtitle data never
// overwrites column-sourced data.
func (n *Normalizer) applySubtitleDefaults(p *Product, subtitle map[string]string) {
	if len(subtitle) == 0 {
		return
	}
	keys := make([]string, 0, len(subtitle))
	for k := range subtitle {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := CompactKey(k)
		if key == "" {
			continue
		}
		if _, exists := p.Properties[key]; exists {
			continue
		}
		p.SetProperty(key, n.normalizeSubtitleValue(subtitle[k]))
	}
}

// normalizeSubtitleValue routes a subtitle value through the configured
// lookup table, case-insensitively. A miss keeps the original value.
func (n *Normalizer) normalizeSubtitleValue(v string) string {
	if n.subtitleTable == nil {
		return v
	}
	if mapped, ok := n.subtitleTable.GetFold(v, "lower"); ok {
		return mapped
	}
	return v
}

// route writes every bag entry onto the aggregate.
//
// Keys following the Category.PropertyName convention route by category:
// recognized Product/Offer fields write directly, any other Product.* or
// Offer.* key becomes a dynamic property, and unrecognized categories are
// ignored. Keys without a category are resolved through the property
// definitions' classifications.
func (n *Normalizer) route(bag *parser.Bag, agg *Aggregate) {
	for _, e := range bag.Snapshot() {
		switch e.Key {
		case keyProductName:
			agg.Product.Name = e.Value
			continue
		case keyProductCode:
			agg.Product.Code = e.Value
			continue
		case keyOfferPrice:
			setPrice(agg.Offer, e.Value)
			continue
		case keyOfferCurr:
			agg.Offer.Currency = e.Value
			continue
		case keyOfferQty:
			setQuantity(agg.Offer, e.Value)
			continue
		case keyOfferDesc:
			agg.Offer.Description = e.Value
			continue
		}

		if category, name, ok := strings.Cut(e.Key, "."); ok {
			switch category {
			case "Product":
				agg.Product.SetProperty(name, e.Value)
			case "Offer":
				agg.Offer.SetProperty(name, e.Value)
			}
			// Unrecognized categories are ignored.
			continue
		}

		n.routeClassified(e.Key, e.Value, agg)
	}
}

// routeClassified routes a bare property key through its configured
// classification (the column-classification variant). Keys without a
// definition, or with an unknown classification, are ignored.
func (n *Normalizer) routeClassified(key, value string, agg *Aggregate) {
	idx, ok := n.propsByName[key]
	if !ok {
		return
	}
	switch n.props[idx].def.Classification {
	case config.ClassProductName:
		agg.Product.Name = value
	case config.ClassProductCode:
		agg.Product.Code = value
	case config.ClassOfferPrice:
		setPrice(agg.Offer, value)
	case config.ClassOfferCurrency:
		agg.Offer.Currency = value
	case config.ClassOfferQuantity:
		setQuantity(agg.Offer, value)
	case config.ClassOfferDesc:
		agg.Offer.Description = value
	case config.ClassProductProperty:
		agg.Product.SetProperty(key, value)
	case config.ClassOfferProperty:
		agg.Offer.SetProperty(key, value)
	}
}

// setPrice parses a decimal price. Comma decimal separators are normalized
// to dots first (EU-locale supplier files). An unparsable value leaves the
// field at its previous value rather than raising an error.
func setPrice(o *Offer, raw string) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return
	}
	o.Price = d
}

// setQuantity parses an integer quantity, keeping the previous value on
// failure.
func setQuantity(o *Offer, raw string) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return
	}
	o.Quantity = q
}

// synthesizeName builds a product name from dynamic properties when no name
// column produced one: preferred properties first (in configured order),
// then any remaining dynamic properties in insertion order, then
// "Product <code>", then the literal fallback.
func (n *Normalizer) synthesizeName(p *Product) string {
	var parts []string

	if len(n.settings.NameSynthesisOrder) > 0 {
		for _, key := range n.settings.NameSynthesisOrder {
			if v := p.Properties[key]; v != "" {
				parts = append(parts, v)
			}
		}
	} else {
		for _, key := range p.propOrder {
			if v := p.Properties[key]; v != "" {
				parts = append(parts, v)
			}
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if p.Code != "" {
		return "Product " + p.Code
	}
	return "Unknown Product"
}

// CompactKey normalizes a subtitle key: trimmed, lower-cased, then
// title-cased with whitespace/underscore/hyphen separators stripped, forming
// a single compact key ("shipping_date" -> "ShippingDate").
func CompactKey(k string) string {
	parts := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(k)), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_' || r == '-'
	})
	var sb strings.Builder
	for _, part := range parts {
		r := []rune(part)
		sb.WriteString(strings.ToUpper(string(r[0])))
		sb.WriteString(string(r[1:]))
	}
	return sb.String()
}
