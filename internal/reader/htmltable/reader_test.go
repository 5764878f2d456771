package htmltable

import (
	"io"
	"strings"
	"testing"

	"pricefeed/internal/config"
)

const doc = `<html><body>
<table class="nav"><tr><td>menu</td></tr></table>
<table class="prices">
  <tr><th>Code</th><th>Name</th><th>Price</th></tr>
  <tr><td>12345</td><td>Chanel No5</td><td>100,50</td></tr>
  <tr><td>67890</td><td>Dior</td><td>89</td></tr>
</table>
</body></html>`

func TestParseFirstTable(t *testing.T) {
	t.Parallel()

	r, err := Parse(strings.NewReader(doc), nil)
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	if v, _ := row.Value("A"); v != "menu" {
		t.Fatalf("A=%q, want menu (first table wins)", v)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestParseSelector(t *testing.T) {
	t.Parallel()

	r, err := Parse(strings.NewReader(doc), config.Options{"selector": "table.prices"})
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	// Default has_header skips the th-only row.
	if v, _ := row.Value("B"); v != "Chanel No5" {
		t.Fatalf("B=%q, want Chanel No5", v)
	}
	if row.Index != 1 {
		t.Fatalf("Index=%d, want 1", row.Index)
	}

	row, err = r.Next()
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	if v, _ := row.Value("A"); v != "67890" {
		t.Fatalf("A=%q, want 67890", v)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestParseKeepHeader(t *testing.T) {
	t.Parallel()

	r, err := Parse(strings.NewReader(doc), config.Options{
		"selector":   "table.prices",
		"has_header": false,
	})
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	defer r.Close()

	row, err := r.Next()
	if err != nil {
		t.Fatalf("Next() err=%v", err)
	}
	if v, _ := row.Value("A"); v != "Code" {
		t.Fatalf("A=%q, want header row kept", v)
	}
}

func TestParseNoMatch(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("<p>no tables</p>"), nil)
	if err == nil {
		t.Fatalf("Parse() err=nil, want selector error")
	}
}
