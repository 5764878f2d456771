// Package xlsx reads supplier XLSX workbooks into engine rows.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pricefeed/internal/config"
	"pricefeed/internal/reader"
)

// Reader yields the rows of one worksheet as reader.Rows.
//
// Options:
//   - sheet:           worksheet name (default: the first sheet)
//   - has_header:      skip the first row (default false)
//   - trim_space:      trim each cell (default true)
//   - detect_subtitle: flag one-cell rows as subtitle rows (default false)
type Reader struct {
	f    *excelize.File
	rows [][]string
	pos  int
	line int

	trim           bool
	detectSubtitle bool
}

// Open reads the workbook at path.
func Open(path string, opt config.Options) (*Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return fromFile(f, opt)
}

// OpenReader reads a workbook from r (e.g. an upload or a test buffer).
func OpenReader(r io.Reader, opt config.Options) (*Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return fromFile(f, opt)
}

func fromFile(f *excelize.File, opt config.Options) (*Reader, error) {
	sheet := opt.String("sheet", "")
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	// Supplier sheets are small enough to materialize; GetRows also resolves
	// shared strings and formula results, which the streaming API does not.
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rd := &Reader{
		f:              f,
		rows:           rows,
		trim:           opt.Bool("trim_space", true),
		detectSubtitle: opt.Bool("detect_subtitle", false),
	}
	if opt.Bool("has_header", false) && len(rd.rows) > 0 {
		rd.pos = 1
		rd.line = 1
	}
	return rd, nil
}

// Next returns the next row, or io.EOF when the sheet is exhausted.
func (r *Reader) Next() (reader.Row, error) {
	if r.pos >= len(r.rows) {
		return reader.Row{}, io.EOF
	}
	cells := r.rows[r.pos]
	r.pos++
	r.line++

	row := reader.NewRow(r.line, cells, r.trim)
	if r.detectSubtitle {
		if sub, ok := reader.DetectSubtitle(row); ok {
			row.IsSubtitleRow = true
			row.Subtitle = sub
		}
	}
	return row, nil
}

// Close closes the workbook.
func (r *Reader) Close() error { return r.f.Close() }
