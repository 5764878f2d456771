package engine

import (
	"strings"

	"pricefeed/internal/config"
)

// Assignment is the finalized output of one executed rule for one cell:
// a property key, its value, and the identifier of the rule that produced it.
type Assignment struct {
	Key    string
	Value  string
	Source string
}

// Rule is a compiled column rule: an ordered step pipeline bound to one
// column key, plus the identifier recorded as write provenance.
type Rule struct {
	ID     string
	Column string
	Steps  []Step
}

// CompileRule compiles one configured column rule.
func CompileRule(cr config.ColumnRule) Rule {
	r := Rule{
		ID:     cr.ID,
		Column: cr.Column,
		Steps:  make([]Step, 0, len(cr.Steps)),
	}
	for _, spec := range cr.Steps {
		r.Steps = append(r.Steps, Compile(spec))
	}
	return r
}

// CompileRules compiles all column rules in declaration order.
func CompileRules(crs []config.ColumnRule) []Rule {
	out := make([]Rule, 0, len(crs))
	for _, cr := range crs {
		out = append(out, CompileRule(cr))
	}
	return out
}

// Execute runs the rule against one raw cell value with an empty capture
// state. See ExecuteSeeded.
func (r Rule) Execute(raw string, tables config.TableSet) []Assignment {
	return r.ExecuteSeeded(raw, tables, nil, nil)
}

// ExecuteSeeded runs the rule against one raw cell value, seeding the state
// with pre-existing captures (in seedKeys order). The parser engine uses the
// seed to expose earlier rules' assignments to later rules within a row.
//
// A blank raw value yields no assignments. Otherwise every step is folded
// over the state in order, and every capture whose key begins with the
// assign: marker becomes an Assignment. Seeded assign: captures are not
// re-emitted unless a step rewrote them.
func (r Rule) ExecuteSeeded(raw string, tables config.TableSet, seedKeys []string, seeds map[string]string) []Assignment {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	s := NewStateWith(raw, seedKeys, seeds)
	for _, st := range r.Steps {
		s = st.Apply(s, tables)
	}

	var out []Assignment
	for _, key := range s.CaptureKeys() {
		if !strings.HasPrefix(key, AssignPrefix) {
			continue
		}
		v, _ := s.Capture(key)
		if seeds != nil {
			if sv, ok := seeds[key]; ok && sv == v {
				continue
			}
		}
		out = append(out, Assignment{
			Key:    strings.TrimPrefix(key, AssignPrefix),
			Value:  v,
			Source: r.ID,
		})
	}
	return out
}
