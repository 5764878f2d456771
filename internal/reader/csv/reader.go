// Package csv reads supplier CSV files into engine rows keyed by
// spreadsheet-style column letters.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"pricefeed/internal/config"
	"pricefeed/internal/reader"
)

// Reader streams CSV records as reader.Rows.
//
// Options:
//   - comma:           field delimiter (default ",")
//   - trim_space:      trim each cell (default true)
//   - has_header:      skip the first record (default false; supplier price
//     lists are commonly headerless, positions come from configuration)
//   - lazy_quotes:     tolerate bare quotes (default false)
//   - detect_subtitle: flag one-cell rows as subtitle rows (default false)
type Reader struct {
	src  io.ReadCloser
	cr   *csv.Reader
	line int

	trim           bool
	skipHeader     bool
	detectSubtitle bool
}

// New constructs a CSV reader over src with the given options.
func New(src io.ReadCloser, opt config.Options) *Reader {
	cr := csv.NewReader(src)
	cr.Comma = opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1

	return &Reader{
		src:            src,
		cr:             cr,
		trim:           opt.Bool("trim_space", true),
		skipHeader:     opt.Bool("has_header", false),
		detectSubtitle: opt.Bool("detect_subtitle", false),
	}
}

// Next returns the next data row, or io.EOF at end of file.
//
// Malformed records are returned as errors with their line number; the caller
// decides whether to continue (the file runner records them and moves on).
func (r *Reader) Next() (reader.Row, error) {
	if r.skipHeader {
		r.skipHeader = false
		r.line++
		if _, err := r.cr.Read(); err != nil {
			if err == io.EOF {
				return reader.Row{}, io.EOF
			}
			return reader.Row{}, fmt.Errorf("read header: %w", err)
		}
	}

	r.line++
	rec, err := r.cr.Read()
	if err == io.EOF {
		return reader.Row{}, io.EOF
	}
	if err != nil {
		return reader.Row{}, fmt.Errorf("csv line %d: %w", r.line, err)
	}

	// Strip a UTF-8 BOM from the very first cell of the file.
	if r.line == 1 && len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
	}

	row := reader.NewRow(r.line, rec, r.trim)
	if r.detectSubtitle {
		if sub, ok := reader.DetectSubtitle(row); ok {
			row.IsSubtitleRow = true
			row.Subtitle = sub
		}
	}
	return row, nil
}

// Close closes the underlying source.
func (r *Reader) Close() error { return r.src.Close() }
