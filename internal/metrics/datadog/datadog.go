// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// Metrics are buffered in memory and submitted on Flush(): periodically via
// a ticker (default once per minute) and one final time on Close(). Short
// ingest runs therefore still get a tail flush, and long backfills produce a
// real time series instead of a single spike.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"pricefeed/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "pricefeed".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod", "supplier:acme"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams. Production code never sets these; unit tests
	// use them to avoid real submission and nondeterministic clocks.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal interface needed to submit metrics. The
// SDK exposes a concrete *datadogV2.MetricsApi; depending on this interface
// instead enables deterministic tests with a fake submitter.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu sync.Mutex

	// counters[metric][labelKey] accumulates counter deltas.
	counters map[string]map[string]float64
	// samples[metric][labelKey] accumulates histogram samples.
	samples map[string]map[string][]float64
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client and
// starts its periodic flush loop.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "pricefeed"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  newTicker,
		counters:   make(map[string]map[string]float64),
		samples:    make(map[string]map[string][]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the background flush loop and performs one final Flush().
// Close once; a second call panics on the closed channel.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.counters[name]
	if m == nil {
		m = make(map[string]float64)
		b.counters[name] = m
	}
	m[labelKey(labels)] += delta
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.samples[name]
	if m == nil {
		m = make(map[string][]float64)
		b.samples[name] = m
	}
	k := labelKey(labels)
	m[k] = append(m[k], value)
}

// snapshot is the buffered state detached under the lock so payload building
// and submission run out-of-lock.
type snapshot struct {
	counters map[string]map[string]float64
	samples  map[string]map[string][]float64
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{counters: b.counters, samples: b.samples}
	b.counters = make(map[string]map[string]float64)
	b.samples = make(map[string]map[string][]float64)
	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.counters) == 0 && len(s.samples) == 0
}

// Flush submits buffered metrics and resets local buffers. Buffers are reset
// even if submission fails, keeping the ingest hot path unblocked.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}
	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries constructs Datadog series for a snapshot at a fixed timestamp.
// It is pure (no locks, no network, no clocks), which keeps it unit-testable.
//
// Counter metrics submit as counts; histogram metrics submit percentile and
// max/sample gauges under "<metric>.p50" etc. Dots replace underscores in
// metric names per Datadog convention.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	var series []datadogV2.MetricSeries

	for name, byLabel := range s.counters {
		for lk, v := range byLabel {
			if v == 0 {
				continue
			}
			series = append(series, datadogV2.MetricSeries{
				Metric: ddName(name),
				Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
				Points: []datadogV2.MetricPoint{
					{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(v)},
				},
				Tags: withTags(b.baseTags, labelTags(lk)...),
			})
		}
	}

	for name, byLabel := range s.samples {
		for lk, samples := range byLabel {
			if len(samples) == 0 {
				continue
			}
			cp := append([]float64(nil), samples...)
			sort.Float64s(cp)
			tags := withTags(b.baseTags, labelTags(lk)...)

			prefix := ddName(name)
			series = append(series,
				gaugeSeries(prefix+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix),
				gaugeSeries(prefix+".p90", percentileNearestRank(cp, 0.90), tags, nowUnix),
				gaugeSeries(prefix+".p99", percentileNearestRank(cp, 0.99), tags, nowUnix),
				gaugeSeries(prefix+".max", cp[len(cp)-1], tags, nowUnix),
				gaugeSeries(prefix+".samples", float64(len(cp)), tags, nowUnix),
			)
		}
	}

	return series
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func ddName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

// labelKey flattens labels into a stable "k:v,k:v" buffer key.
func labelKey(labels metrics.Labels) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+":"+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// labelTags turns a buffer key back into Datadog tags.
func labelTags(labelKey string) []string {
	if labelKey == "" {
		return nil
	}
	return strings.Split(labelKey, ",")
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	out = append(out, extras...)
	return out
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,supplier:acme".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
