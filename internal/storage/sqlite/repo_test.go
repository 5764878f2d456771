package sqlite

import (
	"strings"
	"testing"

	"pricefeed/internal/storage"
)

func TestInsertOfferSQL(t *testing.T) {
	t.Parallel()

	sql := insertOfferSQL()

	if !strings.HasPrefix(sql, "INSERT OR IGNORE INTO offers (") {
		t.Fatalf("sql=%q", sql)
	}
	for _, col := range storage.OfferColumns {
		if !strings.Contains(sql, col) {
			t.Fatalf("sql missing column %s: %q", col, sql)
		}
	}
	if got := strings.Count(sql, "?"); got != len(storage.OfferColumns) {
		t.Fatalf("placeholders=%d, want %d", got, len(storage.OfferColumns))
	}
}
