package config

import (
	"fmt"
	"regexp"
)

// Severity levels for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one finding from ValidateSupplier.
type Issue struct {
	Severity string
	Path     string
	Message  string
}

// ValidateSupplier checks a supplier configuration for structural problems.
//
// knownOp reports whether a step operation name is recognized; pass the
// engine's op check. Unknown ops are warnings, not errors: the engine treats
// them as no-ops at runtime, but they usually indicate a typo.
//
// Invalid regular expressions are also warnings because the engine degrades
// them to no-match at the point of use.
func ValidateSupplier(s *Supplier, knownOp func(string) bool) []Issue {
	var issues []Issue

	add := func(severity, path, format string, a ...any) {
		issues = append(issues, Issue{
			Severity: severity,
			Path:     path,
			Message:  fmt.Sprintf(format, a...),
		})
	}

	if s.Name == "" {
		add(SeverityWarning, "name", "supplier name is empty")
	}

	switch s.Settings.WritePolicy {
	case "", WriteFirstWins, WriteLastWins:
	default:
		add(SeverityError, "settings.write_policy", "unknown write policy %q", s.Settings.WritePolicy)
	}

	if len(s.Columns) == 0 {
		add(SeverityError, "columns", "no column rules configured")
	}

	seenIDs := make(map[string]bool, len(s.Columns))
	for i, cr := range s.Columns {
		path := fmt.Sprintf("columns[%d]", i)
		if cr.ID == "" {
			add(SeverityError, path+".id", "column rule has no id")
		} else if seenIDs[cr.ID] {
			add(SeverityWarning, path+".id", "duplicate rule id %q", cr.ID)
		}
		seenIDs[cr.ID] = true

		if cr.Column == "" {
			add(SeverityError, path+".column", "column rule has no column key")
		}

		for j, st := range cr.Steps {
			sp := fmt.Sprintf("%s.steps[%d]", path, j)
			if knownOp != nil && !knownOp(st.Op) {
				add(SeverityWarning, sp+".op", "unknown operation %q (treated as no-op)", st.Op)
			}
			for _, key := range []string{"pattern"} {
				if p := st.Options.String(key, ""); p != "" {
					if _, err := regexp.Compile(p); err != nil {
						add(SeverityWarning, sp+".options."+key, "invalid pattern: %v", err)
					}
				}
			}
			for _, p := range st.Options.StringSlice("patterns") {
				if _, err := regexp.Compile(p); err != nil {
					add(SeverityWarning, sp+".options.patterns", "invalid pattern %q: %v", p, err)
				}
			}
			if tbl := st.Options.String("table", ""); tbl != "" {
				if _, ok := s.Tables.Table(tbl); !ok {
					add(SeverityWarning, sp+".options.table", "lookup table %q not defined", tbl)
				}
			}
			for _, m := range st.Options.ObjectList("mappings") {
				if tbl := m.String("table", ""); tbl != "" {
					if _, ok := s.Tables.Table(tbl); !ok {
						add(SeverityWarning, sp+".options.mappings", "lookup table %q not defined", tbl)
					}
				}
			}
		}
	}

	classes := map[string]bool{
		ClassProductName: true, ClassProductCode: true,
		ClassOfferPrice: true, ClassOfferCurrency: true,
		ClassOfferQuantity: true, ClassOfferDesc: true,
		ClassProductProperty: true, ClassOfferProperty: true,
	}
	for i, pd := range s.Properties {
		path := fmt.Sprintf("properties[%d]", i)
		if pd.Name == "" {
			add(SeverityError, path+".name", "property has no name")
		}
		if pd.Classification != "" && !classes[pd.Classification] {
			add(SeverityWarning, path+".classification", "unknown classification %q (property will be ignored)", pd.Classification)
		}
		for _, p := range pd.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				add(SeverityWarning, path+".patterns", "invalid pattern %q: %v", p, err)
			}
		}
	}

	if tbl := s.Settings.SubtitleTable; tbl != "" {
		if _, ok := s.Tables.Table(tbl); !ok {
			add(SeverityWarning, "settings.subtitle_table", "lookup table %q not defined", tbl)
		}
	}

	return issues
}
