// Package reader defines the row model consumed by the parsing engine and
// the Reader contract implemented by the format-specific ingestion adapters
// (CSV, XLSX, HTML table).
package reader

import "strings"

// Row is one supplier data record: an ordered mapping from spreadsheet-style
// column key ("A", "B", ...) to raw cell text. Rows are immutable once
// constructed.
//
// Subtitle carries key/value defaults derived from a preceding non-data row;
// it is attached by the file runner, not by readers.
type Row struct {
	// Index is the 1-based record number within the file.
	Index int

	Keys   []string
	Values map[string]string

	HasData       bool
	IsSubtitleRow bool
	Subtitle      map[string]string
}

// Value returns the raw text for a column key. The second result is false
// when the column is absent from the row.
func (r Row) Value(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Reader yields rows in file order.
type Reader interface {
	// Next returns the next row, or io.EOF when the file is exhausted.
	Next() (Row, error)

	// Close releases the underlying source.
	Close() error
}

// ColumnKey converts a 0-based column index to its spreadsheet letter key
// ("A".."Z", "AA", ...).
func ColumnKey(i int) string {
	var sb strings.Builder
	for i >= 0 {
		sb.WriteByte(byte('A' + i%26))
		i = i/26 - 1
	}
	// Letters were produced least-significant first.
	b := []byte(sb.String())
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
	return string(b)
}

// NewRow builds a Row from positional cells, assigning letter keys and
// computing the HasData flag. Cell text is trimmed when trim is set.
func NewRow(index int, cells []string, trim bool) Row {
	row := Row{
		Index:  index,
		Keys:   make([]string, 0, len(cells)),
		Values: make(map[string]string, len(cells)),
	}
	for i, c := range cells {
		if trim {
			c = strings.TrimSpace(c)
		}
		key := ColumnKey(i)
		row.Keys = append(row.Keys, key)
		row.Values[key] = c
		if c != "" {
			row.HasData = true
		}
	}
	return row
}

// DetectSubtitle inspects a row for the subtitle shape: exactly one non-empty
// cell. When detected it returns the parsed key/value pairs; the cell text is
// split on ";" into pairs and each pair on the first ":" into key and value.
// Pairs without a ":" are kept with an empty value.
func DetectSubtitle(row Row) (map[string]string, bool) {
	var cell string
	nonEmpty := 0
	for _, k := range row.Keys {
		if v := row.Values[k]; v != "" {
			nonEmpty++
			cell = v
		}
	}
	if nonEmpty != 1 {
		return nil, false
	}

	out := make(map[string]string)
	for _, pair := range strings.Split(cell, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !found {
			out[key] = ""
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
