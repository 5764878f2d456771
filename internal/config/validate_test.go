package config

import (
	"strings"
	"testing"
)

func knownOps(name string) bool {
	switch name {
	case "trim", "assign", "map_value":
		return true
	}
	return false
}

func findIssue(issues []Issue, pathPart string) (Issue, bool) {
	for _, iss := range issues {
		if strings.Contains(iss.Path, pathPart) {
			return iss, true
		}
	}
	return Issue{}, false
}

func TestValidateSupplierClean(t *testing.T) {
	t.Parallel()

	s := &Supplier{
		Name: "acme",
		Columns: []ColumnRule{
			{ID: "code", Column: "A", Steps: []StepSpec{
				{Op: "trim"},
				{Op: "map_value", Options: Options{"table": "units"}},
				{Op: "assign", Options: Options{"target": "Product.Code"}},
			}},
		},
		Tables: TableSet{"units": NewLookupTable(nil)},
		Properties: []PropertyDef{
			{Name: "code", Column: "A", Classification: ClassProductCode, Patterns: []string{`^\d+$`}},
		},
	}

	if issues := ValidateSupplier(s, knownOps); len(issues) != 0 {
		t.Fatalf("clean config produced issues: %v", issues)
	}
}

func TestValidateSupplierFindings(t *testing.T) {
	t.Parallel()

	s := &Supplier{
		Settings: Settings{
			WritePolicy:   "random_wins",
			SubtitleTable: "missing_table",
		},
		Columns: []ColumnRule{
			{ID: "", Column: ""},
			{ID: "dup", Column: "A", Steps: []StepSpec{
				{Op: "frobnicate"},
				{Op: "map_value", Options: Options{"table": "nope"}},
				{Op: "trim", Options: Options{"pattern": `([`}},
			}},
			{ID: "dup", Column: "B"},
		},
		Tables: TableSet{},
		Properties: []PropertyDef{
			{Name: "", Classification: "galaxy_name", Patterns: []string{`([`}},
		},
	}

	issues := ValidateSupplier(s, knownOps)

	wantErrors := []string{
		"settings.write_policy",
		"columns[0].id",
		"columns[0].column",
		"properties[0].name",
	}
	for _, p := range wantErrors {
		iss, ok := findIssue(issues, p)
		if !ok {
			t.Fatalf("missing issue for %s; got %v", p, issues)
		}
		if iss.Severity != SeverityError {
			t.Fatalf("%s severity=%s, want error", p, iss.Severity)
		}
	}

	wantWarnings := []string{
		"name",
		"columns[2].id",
		"columns[1].steps[0].op",
		"columns[1].steps[1].options.table",
		"columns[1].steps[2].options.pattern",
		"properties[0].classification",
		"properties[0].patterns",
		"settings.subtitle_table",
	}
	for _, p := range wantWarnings {
		iss, ok := findIssue(issues, p)
		if !ok {
			t.Fatalf("missing warning for %s; got %v", p, issues)
		}
		if iss.Severity != SeverityWarning {
			t.Fatalf("%s severity=%s, want warning", p, iss.Severity)
		}
	}
}

func TestValidateSupplierNoColumns(t *testing.T) {
	t.Parallel()

	s := &Supplier{Name: "acme", Tables: TableSet{}}
	iss, ok := findIssue(ValidateSupplier(s, nil), "columns")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("issue=%+v ok=%v, want columns error", iss, ok)
	}
}
