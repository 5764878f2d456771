package parser

import (
	"pricefeed/internal/config"
	"pricefeed/internal/engine"
	"pricefeed/internal/reader"
)

// Engine holds, per supplier, the compiled column rules in their configured
// declaration order and the shared read-only lookup tables. One Engine is
// built per supplier and reused across all rows of a file; it carries no
// per-row state.
type Engine struct {
	rules  []engine.Rule
	tables config.TableSet

	policy           WritePolicy
	stopOnFirstMatch bool
}

// NewEngine compiles a supplier configuration into a parser engine.
func NewEngine(sup *config.Supplier) *Engine {
	return &Engine{
		rules:            engine.CompileRules(sup.Columns),
		tables:           sup.Tables,
		policy:           PolicyFromConfig(sup.Settings.WritePolicy),
		stopOnFirstMatch: sup.Settings.StopOnFirstMatch,
	}
}

// Tables exposes the supplier's lookup tables (read-only).
func (e *Engine) Tables() config.TableSet { return e.tables }

// ParseRow applies every configured column rule, in declared order, to the
// row's cells and returns the populated property bag.
//
// Seeds are written first under the Seed provenance tag. Rules whose column
// key is absent from the row, or listed in skipColumns (columns that failed
// raw-value validation), are skipped without error. Later rules can read
// earlier rules' assignments: the current bag contents are exposed to each
// rule as assign:-prefixed seed captures, which makes rule order (not cell
// order) the execution contract.
func (e *Engine) ParseRow(row reader.Row, seeds []engine.Assignment, skipColumns map[string]bool) *Bag {
	bag := NewBag(e.policy)
	for _, a := range seeds {
		bag.Set(a.Key, a.Value, SeedSource)
	}

	matched := make(map[string]bool)

	for _, rule := range e.rules {
		if e.stopOnFirstMatch && matched[rule.Column] {
			continue
		}
		if skipColumns[rule.Column] {
			continue
		}

		raw, ok := row.Value(rule.Column)
		if !ok {
			continue
		}

		seedKeys, seedCaptures := bagCaptures(bag)
		assignments := rule.ExecuteSeeded(raw, e.tables, seedKeys, seedCaptures)
		if len(assignments) == 0 {
			continue
		}

		matched[rule.Column] = true
		for _, a := range assignments {
			bag.Set(a.Key, a.Value, a.Source)
		}
	}

	return bag
}

// bagCaptures renders the bag's current contents as assign:-prefixed seed
// captures for the next rule's execution.
func bagCaptures(b *Bag) ([]string, map[string]string) {
	snap := b.Snapshot()
	if len(snap) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(snap))
	captures := make(map[string]string, len(snap))
	for _, e := range snap {
		k := engine.AssignPrefix + e.Key
		keys = append(keys, k)
		captures[k] = e.Value
	}
	return keys, captures
}
