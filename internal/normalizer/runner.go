package normalizer

import (
	"context"
	"fmt"
	"io"
	"time"

	"pricefeed/internal/metrics"
	"pricefeed/internal/reader"
)

// Logger is the minimal logging interface used by the file runner.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// FileStats are the per-file counters exposed to reporting collaborators.
type FileStats struct {
	RowsProcessed int
	RowsSkipped   int
	OffersCreated int
	ErrorCount    int
	WarningCount  int
}

// FileResult is the outcome of processing one file: the accepted aggregates,
// the error list and the statistics. Partial success is the normal case; the
// runner never throws out of its entry point.
type FileResult struct {
	Aggregates []*Aggregate
	Stats      FileStats

	// Errors holds "Row {index}: {message}" strings for faults caught at
	// the row boundary, plus at most one file-level entry.
	Errors []string
}

// Runner drives one file through the normalizer: row iteration, subtitle
// stitching, row-boundary fault isolation and statistics.
type Runner struct {
	Normalizer *Normalizer

	// Logger is optional; nil disables logging.
	Logger Logger
}

func (r *Runner) logf(format string, v ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, v...)
	}
}

// Run processes rows from rd until exhaustion or ctx cancellation.
//
// Processing is single-threaded and synchronous per row. The context is
// checked between rows only; a cancelled run returns whatever rows were
// completed so far, with the cancellation recorded once in the error list.
func (r *Runner) Run(ctx context.Context, rd reader.Reader) *FileResult {
	res := &FileResult{}
	start := time.Now()

	defer func() {
		// File-level fault barrier: record once, return partial result.
		if rec := recover(); rec != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("file: %v", rec))
			res.Stats.ErrorCount++
		}
		r.report(res, time.Since(start))
	}()

	var subtitle map[string]string
	rowIndex := 0

	for {
		select {
		case <-ctx.Done():
			res.Errors = append(res.Errors, fmt.Sprintf("file: %v", ctx.Err()))
			res.Stats.ErrorCount++
			return res
		default:
		}

		row, err := rd.Next()
		if err == io.EOF {
			break
		}
		rowIndex++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", rowIndex, err))
			res.Stats.ErrorCount++
			continue
		}

		if row.IsSubtitleRow {
			// Subtitle rows supply defaults for the rows that follow;
			// they are not data rows themselves.
			subtitle = row.Subtitle
			continue
		}
		if !row.HasData {
			continue
		}
		row.Subtitle = subtitle

		r.processRow(row, res)
	}

	return res
}

// processRow normalizes one row behind a recover barrier: any fault is
// recorded as "Row {index}: {message}" and processing continues with the
// next row.
func (r *Runner) processRow(row reader.Row, res *FileResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row.Index, rec))
			res.Stats.ErrorCount++
		}
	}()

	res.Stats.RowsProcessed++

	agg, err := r.Normalizer.NormalizeRow(row)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row.Index, err))
		res.Stats.ErrorCount++
		return
	}
	if agg == nil || !Accept(agg) {
		res.Stats.RowsSkipped++
		return
	}

	res.Aggregates = append(res.Aggregates, agg)
	res.Stats.OffersCreated++
}

// report logs the summary and publishes file statistics to the metrics
// backend.
func (r *Runner) report(res *FileResult, dur time.Duration) {
	r.logf("stage=file_done rows=%d skipped=%d offers=%d errors=%d duration=%s",
		res.Stats.RowsProcessed, res.Stats.RowsSkipped, res.Stats.OffersCreated,
		res.Stats.ErrorCount, dur.Truncate(time.Millisecond))

	metrics.IncCounter("pricefeed_rows_total", float64(res.Stats.RowsProcessed), metrics.Labels{"kind": "processed"})
	metrics.IncCounter("pricefeed_rows_total", float64(res.Stats.RowsSkipped), metrics.Labels{"kind": "skipped"})
	metrics.IncCounter("pricefeed_offers_total", float64(res.Stats.OffersCreated), nil)
	metrics.IncCounter("pricefeed_errors_total", float64(res.Stats.ErrorCount), nil)
	metrics.ObserveHistogram("pricefeed_file_duration_seconds", dur.Seconds(), nil)
}
