package parser

import (
	"reflect"
	"testing"

	"pricefeed/internal/config"
)

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want WritePolicy
	}{
		{in: config.WriteFirstWins, want: FirstWins},
		{in: config.WriteLastWins, want: LastWins},
		{in: "", want: FirstWins},
		{in: "garbage", want: FirstWins},
	}
	for _, tc := range tests {
		if got := PolicyFromConfig(tc.in); got != tc.want {
			t.Fatalf("PolicyFromConfig(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestBagFirstWins verifies that a frozen key keeps its earliest value and
// provenance.
func TestBagFirstWins(t *testing.T) {
	t.Parallel()

	b := NewBag(FirstWins)
	b.Set("Product.Name", "first", "rule_a")
	b.Set("Product.Name", "second", "rule_b")

	e, ok := b.Get("Product.Name")
	if !ok {
		t.Fatalf("missing key")
	}
	if e.Value != "first" || e.Source != "rule_a" {
		t.Fatalf("entry=%+v, want first/rule_a", e)
	}
	if b.Len() != 1 {
		t.Fatalf("Len()=%d, want 1", b.Len())
	}
}

// TestBagLastWins verifies that every write replaces value and provenance.
func TestBagLastWins(t *testing.T) {
	t.Parallel()

	b := NewBag(LastWins)
	b.Set("Product.Name", "first", "rule_a")
	b.Set("Product.Name", "second", "rule_b")

	e, _ := b.Get("Product.Name")
	if e.Value != "second" || e.Source != "rule_b" {
		t.Fatalf("entry=%+v, want second/rule_b", e)
	}
	if b.Len() != 1 {
		t.Fatalf("Len()=%d, want 1", b.Len())
	}
}

// TestBagForce verifies Force bypasses the write policy.
func TestBagForce(t *testing.T) {
	t.Parallel()

	b := NewBag(FirstWins)
	b.Set("Offer.Currency", "EUR", "rule_a")
	b.Force("Offer.Currency", "DKK", SeedSource)

	e, _ := b.Get("Offer.Currency")
	if e.Value != "DKK" || e.Source != SeedSource {
		t.Fatalf("entry=%+v, want DKK/%s", e, SeedSource)
	}
}

// TestBagSnapshotOrder verifies first-write ordering survives later writes.
func TestBagSnapshotOrder(t *testing.T) {
	t.Parallel()

	b := NewBag(LastWins)
	b.Set("C", "1", "r")
	b.Set("A", "2", "r")
	b.Set("B", "3", "r")
	b.Set("C", "4", "r") // rewrite must not move C

	var keys []string
	for _, e := range b.Snapshot() {
		keys = append(keys, e.Key)
	}
	if !reflect.DeepEqual(keys, []string{"C", "A", "B"}) {
		t.Fatalf("order=%v, want [C A B]", keys)
	}
	if b.Value("C") != "4" {
		t.Fatalf("C=%q, want 4", b.Value("C"))
	}
}
