// Package datadog submits pipeline metrics to Datadog.
//
// Observations are buffered in memory and shipped on a ticker plus one final
// time from Close, so long bulk loads produce a time series instead of a
// single spike at exit. Flush snapshots and resets the buffers under a lock,
// then submits out of lock; a failed submission drops that window's data
// rather than blocking the pipeline.
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

	"marketdw/internal/metrics"
)

// Options configures the backend.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric. Defaults to "marketdw".
	JobName string

	// Tags are extra Datadog tags, e.g. []string{"env:prod"}.
	Tags []string

	// FlushEvery controls the submission interval. Defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams: deterministic clock, ticker and a fake submitter
	// instead of the real API client. Production code never sets these.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the slice of the Datadog SDK the backend needs. The SDK
// only exposes the concrete *datadogV2.MetricsApi, which cannot be stubbed
// without real HTTP; tests inject a fake through this interface.
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

	mu        sync.Mutex
	counters  map[string]*bucket
	durations map[string]*bucket
}

// bucket accumulates one (metric, tag set) pair between flushes.
type bucket struct {
	name    string
	tags    []string
	value   float64
	samples []float64
}

// NewBackend constructs the backend and starts its flush loop. API keys come
// from the standard DD_API_KEY/DD_APP_KEY environment the SDK reads itself;
// construction does not touch the network, errors surface from Flush.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "marketdw"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, envTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	tickerFn := opts.newTicker
	if tickerFn == nil {
		tickerFn = time.NewTicker
	}
	submit := opts.submitter
	if submit == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submit = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submit,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  tickerFn,
		counters:   map[string]*bucket{},
		durations:  map[string]*bucket{},
	}
	go b.loop()
	return b, nil
}

func envTag() string {
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

// Close stops the flush loop and performs one final Flush. Close once.
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
	b.bucketFor(b.counters, name, labels).value += delta
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if seconds < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bk := b.bucketFor(b.durations, name, labels)
	bk.samples = append(bk.samples, seconds)
}

// bucketFor resolves the accumulation bucket for a metric and label set.
// Callers hold b.mu.
func (b *Backend) bucketFor(m map[string]*bucket, name string, labels metrics.Labels) *bucket {
	tags := labelTags(labels)
	key := name + "|" + strings.Join(tags, ",")
	bk, ok := m[key]
	if !ok {
		bk = &bucket{name: name, tags: tags}
		m[key] = bk
	}
	return bk
}

// labelTags renders labels as sorted "k:v" tags so equal label sets share a
// bucket regardless of map iteration order.
func labelTags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

// Flush submits buffered observations and resets the buffers. Returns nil
// when there is nothing to submit.
func (b *Backend) Flush() error {
	b.mu.Lock()
	counters, durations := b.counters, b.durations
	b.counters = map[string]*bucket{}
	b.durations = map[string]*bucket{}
	b.mu.Unlock()

	if len(counters) == 0 && len(durations) == 0 {
		return nil
	}

	series := b.buildSeries(counters, durations, b.now().Unix())
	_, _, err := b.api.SubmitMetrics(b.ctx, datadogV2.MetricPayload{Series: series}, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries is pure: no locks, no clock, no network. Counters become count
// series; duration buckets become p50/p95/max/sample-count gauges.
func (b *Backend) buildSeries(counters, durations map[string]*bucket, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(counters)+4*len(durations))

	for _, bk := range counters {
		if bk.value == 0 {
			continue
		}
		series = append(series, b.point(metricName(bk.name), bk.value, bk.tags, nowUnix, datadogV2.METRICINTAKETYPE_COUNT))
	}

	for _, bk := range durations {
		if len(bk.samples) == 0 {
			continue
		}
		cp := append([]float64(nil), bk.samples...)
		sort.Float64s(cp)
		base := metricName(bk.name)
		series = append(series,
			b.point(base+".p50", percentile(cp, 0.50), bk.tags, nowUnix, datadogV2.METRICINTAKETYPE_GAUGE),
			b.point(base+".p95", percentile(cp, 0.95), bk.tags, nowUnix, datadogV2.METRICINTAKETYPE_GAUGE),
			b.point(base+".max", cp[len(cp)-1], bk.tags, nowUnix, datadogV2.METRICINTAKETYPE_GAUGE),
			b.point(base+".samples", float64(len(cp)), bk.tags, nowUnix, datadogV2.METRICINTAKETYPE_GAUGE),
		)
	}
	return series
}

func (b *Backend) point(metric string, value float64, tags []string, nowUnix int64, typ datadogV2.MetricIntakeType) datadogV2.MetricSeries {
	all := make([]string, 0, len(b.baseTags)+len(tags))
	all = append(all, b.baseTags...)
	all = append(all, tags...)
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: all,
	}
}

// metricName maps the pipeline's underscore names onto Datadog's dotted
// convention: warehouse_rows_built -> warehouse.rows.built.
func metricName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

// percentile is nearest-rank on a sorted sample slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
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
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
