// Package htmltable reads supplier price lists published as HTML tables into
// engine rows. Some suppliers expose no export at all beyond a web page.
package htmltable

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricefeed/internal/config"
	"pricefeed/internal/reader"
)

// Reader yields the rows of one HTML table as reader.Rows.
//
// Options:
//   - selector:        table selector (default "table", first match wins)
//   - has_header:      skip rows consisting of <th> cells only (default true)
//   - trim_space:      trim each cell (default true)
//   - detect_subtitle: flag one-cell rows as subtitle rows (default false)
type Reader struct {
	rows [][]string
	pos  int
	line int

	trim           bool
	detectSubtitle bool
}

// Parse extracts the first matching table from the HTML document in src.
func Parse(src io.Reader, opt config.Options) (*Reader, error) {
	doc, err := goquery.NewDocumentFromReader(src)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	selector := opt.String("selector", "table")
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table matches selector %q", selector)
	}

	skipHeader := opt.Bool("has_header", true)

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if skipHeader && tr.Find("td").Length() == 0 && tr.Find("th").Length() > 0 {
			return
		}
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return &Reader{
		rows:           rows,
		trim:           opt.Bool("trim_space", true),
		detectSubtitle: opt.Bool("detect_subtitle", false),
	}, nil
}

// Next returns the next row, or io.EOF when the table is exhausted.
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

// Close is a no-op; the document was fully parsed up front.
func (r *Reader) Close() error { return nil }
