// Package parser orchestrates per-row rule execution: it applies every
// configured column rule, in declared order, against a row's cells and
// accumulates the resulting assignments in a property bag.
package parser

import "pricefeed/internal/config"

// SeedSource is the provenance tag for assignments seeded into a bag before
// any column rule ran (e.g. subtitle-derived defaults).
const SeedSource = "Seed"

// WritePolicy controls how repeated writes to the same bag key resolve.
type WritePolicy int

const (
	// FirstWins freezes a key at its earliest assignment.
	FirstWins WritePolicy = iota
	// LastWins lets every assignment replace the prior value.
	LastWins
)

// PolicyFromConfig maps the settings flag onto a WritePolicy.
// Unknown values fall back to FirstWins.
func PolicyFromConfig(s string) WritePolicy {
	if s == config.WriteLastWins {
		return LastWins
	}
	return FirstWins
}

// Entry is the stored value for one bag key plus the identifier of the rule
// that wrote it.
type Entry struct {
	Value  string
	Source string
}

// KeyedEntry pairs a bag key with its entry; returned by Snapshot.
type KeyedEntry struct {
	Key string
	Entry
}

// Bag is the per-row property accumulator. It records, for each property
// key, the current value and the contributing rule, honoring the configured
// write policy. A Bag lives for exactly one row and is not safe for
// concurrent use (rows never share one).
type Bag struct {
	policy  WritePolicy
	order   []string
	entries map[string]Entry
}

// NewBag creates an empty bag with the given write policy.
func NewBag(policy WritePolicy) *Bag {
	return &Bag{
		policy:  policy,
		entries: make(map[string]Entry),
	}
}

// Set records an assignment under the bag's write policy: under FirstWins a
// frozen key is never overwritten, under LastWins every assignment replaces
// the prior value.
func (b *Bag) Set(key, value, source string) {
	if _, exists := b.entries[key]; exists {
		if b.policy == FirstWins {
			return
		}
		b.entries[key] = Entry{Value: value, Source: source}
		return
	}
	b.order = append(b.order, key)
	b.entries[key] = Entry{Value: value, Source: source}
}

// Force records an assignment regardless of the write policy. Used by the
// subtitle assignment-mapping variant, which carries its own per-mapping
// overwrite flag.
func (b *Bag) Force(key, value, source string) {
	if _, exists := b.entries[key]; !exists {
		b.order = append(b.order, key)
	}
	b.entries[key] = Entry{Value: value, Source: source}
}

// Get returns the entry for key, if present.
func (b *Bag) Get(key string) (Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Value returns the stored value for key, or "".
func (b *Bag) Value(key string) string {
	return b.entries[key].Value
}

// Len returns the number of stored keys.
func (b *Bag) Len() int { return len(b.order) }

// Snapshot returns all entries in first-write order. The returned slice is
// detached from the bag.
func (b *Bag) Snapshot() []KeyedEntry {
	out := make([]KeyedEntry, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, KeyedEntry{Key: k, Entry: b.entries[k]})
	}
	return out
}
