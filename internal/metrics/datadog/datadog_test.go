package datadog

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"marketdw/internal/metrics"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newTestBackend(t *testing.T) (*Backend, *fakeSubmitter) {
	t.Helper()
	fake := &fakeSubmitter{}
	b, err := NewBackend(context.Background(), Options{
		JobName:   "testjob",
		now:       func() time.Time { return time.Unix(1700000000, 0) },
		newTicker: func(time.Duration) *time.Ticker { return time.NewTicker(time.Hour) },
		submitter: fake,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b, fake
}

func findSeries(p datadogV2.MetricPayload, metric string) (datadogV2.MetricSeries, bool) {
	for _, s := range p.Series {
		if s.Metric == metric {
			return s, true
		}
	}
	return datadogV2.MetricSeries{}, false
}

func hasTag(s datadogV2.MetricSeries, tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestFlushSubmitsBufferedCounters(t *testing.T) {
	b, fake := newTestBackend(t)
	defer b.Close()

	b.IncCounter(metrics.RowsPersisted, 10, metrics.Labels{"table": "fact_sales"})
	b.IncCounter(metrics.RowsPersisted, 5, metrics.Labels{"table": "fact_sales"})
	b.IncCounter(metrics.RowsPersisted, 3, metrics.Labels{"table": "dim_product"})

	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if fake.count() != 1 {
		t.Fatalf("submissions = %d, want 1", fake.count())
	}

	p := fake.payloads[0]
	if len(p.Series) != 2 {
		t.Fatalf("series = %d, want one per label set", len(p.Series))
	}
	for _, s := range p.Series {
		if s.Metric != "warehouse.rows.persisted" {
			t.Errorf("metric = %q", s.Metric)
		}
		if !hasTag(s, "job:testjob") {
			t.Errorf("missing job tag: %v", s.Tags)
		}
		if hasTag(s, "table:fact_sales") {
			if got := *s.Points[0].Value; got != 15 {
				t.Errorf("fact_sales value = %v, want summed 15", got)
			}
			if got := *s.Points[0].Timestamp; got != 1700000000 {
				t.Errorf("timestamp = %d", got)
			}
		}
	}
}

func TestFlushResetsBuffers(t *testing.T) {
	b, fake := newTestBackend(t)
	defer b.Close()

	b.IncCounter(metrics.TableFailures, 1, metrics.Labels{"table": "fact_deposits"})
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if fake.count() != 1 {
		t.Errorf("empty window submitted anyway: %d submissions", fake.count())
	}
}

func TestDurationsBecomePercentileGauges(t *testing.T) {
	b, fake := newTestBackend(t)
	defer b.Close()

	for _, v := range []float64{1, 2, 3, 4, 100} {
		b.ObserveDuration(metrics.RunDuration, v, metrics.Labels{"status": "ok"})
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	p := fake.payloads[0]
	max, ok := findSeries(p, "warehouse.run.duration.seconds.max")
	if !ok {
		t.Fatal("max gauge missing")
	}
	if got := *max.Points[0].Value; got != 100 {
		t.Errorf("max = %v", got)
	}
	samples, ok := findSeries(p, "warehouse.run.duration.seconds.samples")
	if !ok {
		t.Fatal("samples gauge missing")
	}
	if got := *samples.Points[0].Value; got != 5 {
		t.Errorf("samples = %v", got)
	}
	if _, ok := findSeries(p, "warehouse.run.duration.seconds.p95"); !ok {
		t.Error("p95 gauge missing")
	}
	if !hasTag(max, "status:ok") {
		t.Errorf("missing status tag: %v", max.Tags)
	}
}

func TestNegativeAndZeroObservationsIgnored(t *testing.T) {
	b, fake := newTestBackend(t)
	defer b.Close()

	b.IncCounter(metrics.RowsBuilt, 0, nil)
	b.IncCounter(metrics.RowsBuilt, -4, nil)
	b.ObserveDuration(metrics.RunDuration, -1, nil)

	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if fake.count() != 0 {
		t.Errorf("submissions = %d, want 0", fake.count())
	}
}

func TestCloseFlushesTail(t *testing.T) {
	b, fake := newTestBackend(t)
	b.IncCounter(metrics.RowsBuilt, 2, metrics.Labels{"table": "dim_time"})
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if fake.count() != 1 {
		t.Errorf("submissions after close = %d, want 1", fake.count())
	}
}

func TestLabelTagsDeterministic(t *testing.T) {
	got := labelTags(metrics.Labels{"b": "2", "a": "1", "c": "3"})
	want := []string{"a:1", "b:2", "c:3"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tags = %v, want %v", got, want)
		}
	}
}

func TestParseTagsCSV(t *testing.T) {
	got := ParseTagsCSV(" env:prod, team:data ,,")
	if len(got) != 2 || got[0] != "env:prod" || got[1] != "team:data" {
		t.Errorf("ParseTagsCSV = %v", got)
	}
	if ParseTagsCSV("") != nil {
		t.Error("empty input should yield nil")
	}
}
