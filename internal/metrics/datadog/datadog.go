// Package datadog implements a Datadog backend for the internal/metrics package.
//
// Observations are buffered in memory under a mutex, submitted on a periodic
// Flush() ticker, and flushed one final time on Close(). Request handlers can
// call IncCounter/ObserveHistogram at any time; Flush snapshots and resets the
// buffers under the lock, then submits outside it.
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

	"github.com/lakshminarasimha6802/sheetsql/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// ServiceName becomes tag "service:<name>" on every metric.
	// If empty, defaults to "sheetsql".
	ServiceName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod", "team:data"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams. Production code never sets them; unit tests
	// use them to avoid real network submission and nondeterministic clocks.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal interface needed to submit metrics.
// The SDK exposes a concrete *datadogV2.MetricsApi; depending on this
// interface instead lets tests stub submission without HTTP.
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

	importCounts  map[string]float64   // action\x00status -> count
	rowCounts     map[string]float64   // action -> rows
	uploadCounts  map[string]float64   // status -> count
	httpReqCounts map[string]float64   // status -> count
	importDur     map[string][]float64 // action\x00status -> samples
	httpReqDur    map[string][]float64 // status -> samples
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
// Close must be called at most once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// NewBackend constructs a Datadog backend using the official client.
//
// Edge cases:
//   - If opts.FlushEvery <= 0, defaults to 60s.
//   - If opts.ServiceName is empty, defaults to "sheetsql".
//   - Environment tag selection uses ENV then DD_ENV, otherwise env:unknown.
//
// Network errors surface from Flush(), not from construction.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	service := opts.ServiceName
	if service == "" {
		service = "sheetsql"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	envTag := resolveEnvTag()
	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, envTag, "service:"+service)
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
		cfg := dd.NewConfiguration()
		client := dd.NewAPIClient(cfg)
		submitter = datadogV2.NewMetricsApi(client)
	}

	ctx := dd.NewDefaultContext(parent)

	b := &Backend{
		api:        submitter,
		ctx:        ctx,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),

		baseTags: baseTags,

		now:       nowFn,
		newTicker: newTicker,

		importCounts:  make(map[string]float64),
		rowCounts:     make(map[string]float64),
		uploadCounts:  make(map[string]float64),
		httpReqCounts: make(map[string]float64),
		importDur:     make(map[string][]float64),
		httpReqDur:    make(map[string][]float64),
	}

	go b.loop()
	return b, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricImportsTotal:
		k := actionStatusKey(labels["action"], labels["status"])
		b.importCounts[k] += delta

	case metrics.MetricRowsLoaded:
		action := labels["action"]
		if action == "" {
			return
		}
		b.rowCounts[action] += delta

	case metrics.MetricUploadsTotal:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		b.uploadCounts[status] += delta

	case metrics.MetricHTTPRequestsTotal:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		b.httpReqCounts[status] += delta

	default:
		// Unknown metrics are ignored.
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricImportDuration:
		k := actionStatusKey(labels["action"], labels["status"])
		b.importDur[k] = append(b.importDur[k], value)

	case metrics.MetricHTTPRequestDuration:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		b.httpReqDur[status] = append(b.httpReqDur[status], value)

	default:
		// Unknown histograms are ignored.
	}
}

// snapshot is the buffered metric state captured for one flush.
type snapshot struct {
	importCounts  map[string]float64
	rowCounts     map[string]float64
	uploadCounts  map[string]float64
	httpReqCounts map[string]float64
	importDur     map[string][]float64
	httpReqDur    map[string][]float64
}

// snapshotAndReset grabs current buffered metrics and resets internal buffers.
// Takes the lock internally and returns detached maps.
func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		importCounts:  b.importCounts,
		rowCounts:     b.rowCounts,
		uploadCounts:  b.uploadCounts,
		httpReqCounts: b.httpReqCounts,
		importDur:     b.importDur,
		httpReqDur:    b.httpReqDur,
	}

	b.importCounts = make(map[string]float64)
	b.rowCounts = make(map[string]float64)
	b.uploadCounts = make(map[string]float64)
	b.httpReqCounts = make(map[string]float64)
	b.importDur = make(map[string][]float64)
	b.httpReqDur = make(map[string][]float64)

	return s
}

// isEmpty returns true if the snapshot contains no data to submit.
func (s snapshot) isEmpty() bool {
	return len(s.importCounts) == 0 &&
		len(s.rowCounts) == 0 &&
		len(s.uploadCounts) == 0 &&
		len(s.httpReqCounts) == 0 &&
		len(s.importDur) == 0 &&
		len(s.httpReqDur) == 0
}

// Flush submits buffered metrics to Datadog and resets local buffers.
// Returns nil when there is nothing to submit. Buffers are reset even if
// submission fails, keeping the request path from blocking on retries.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	nowUnix := b.now().Unix()

	series := b.buildSeries(snap, nowUnix)
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries constructs Datadog series for a snapshot at a fixed timestamp.
// Pure function over the snapshot: no locks, no network, no clocks.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.importCounts)+len(s.rowCounts)+32)

	for k, v := range s.importCounts {
		if v == 0 {
			continue
		}
		action, status := splitActionStatusKey(k)
		tags := withTags(b.baseTags, "action:"+action, "status:"+status)
		series = append(series, countSeries("sheetsql.imports.total", v, tags, nowUnix))
	}

	for action, v := range s.rowCounts {
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "action:"+action)
		series = append(series, countSeries("sheetsql.rows.loaded", v, tags, nowUnix))
	}

	for status, v := range s.uploadCounts {
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "status:"+status)
		series = append(series, countSeries("sheetsql.uploads.total", v, tags, nowUnix))
	}

	for status, v := range s.httpReqCounts {
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "status:"+status)
		series = append(series, countSeries("sheetsql.http.requests.total", v, tags, nowUnix))
	}

	for k, samples := range s.importDur {
		action, status := splitActionStatusKey(k)
		tags := withTags(b.baseTags, "action:"+action, "status:"+status)
		addPercentiles(&series, tags, "sheetsql.import.duration_seconds", samples, nowUnix)
	}

	for status, samples := range s.httpReqDur {
		tags := withTags(b.baseTags, "status:"+status)
		addPercentiles(&series, tags, "sheetsql.http.request_duration_seconds", samples, nowUnix)
	}

	return series
}

// addPercentiles appends the fixed percentile gauges for a sample set.
// Sorts a copy; the input slice is not mutated. Empty samples are a no-op.
func addPercentiles(series *[]datadogV2.MetricSeries, tags []string, metricPrefix string, samples []float64, nowUnix int64) {
	if len(samples) == 0 {
		return
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	*series = append(*series, gaugeSeries(metricPrefix+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p90", percentileNearestRank(cp, 0.90), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p95", percentileNearestRank(cp, 0.95), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p99", percentileNearestRank(cp, 0.99), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".max", cp[len(cp)-1], tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".samples", float64(len(cp)), tags, nowUnix))
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
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

func actionStatusKey(action, status string) string {
	return action + "\x00" + status
}

func splitActionStatusKey(k string) (action, status string) {
	parts := strings.SplitN(k, "\x00", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return k, "unknown"
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

// ParseTagsCSV parses comma-separated tags like "env:prod,team:data".
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
