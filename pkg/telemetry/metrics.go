// Package telemetry implements the metrics sink: named numeric samples with
// timestamps, queryable for count/min/max/avg/p95/p99 over a time window.
// The retrieval coordinator uses it for cache hit rates and search latency.
// Samples can optionally be flushed to Parquet files for offline analysis.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Sample is one recorded measurement.
type Sample struct {
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
	At     time.Time `json:"at"`
}

// MetricStats aggregates samples of one metric over a window.
type MetricStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Recorder collects samples in memory, bounded per metric. It is safe for
// concurrent use.
type Recorder struct {
	mu         sync.Mutex
	samples    map[string][]Sample
	maxPerName int
	sink       Sink
	now        func() time.Time
}

// Sink receives every recorded sample, e.g. for Parquet persistence.
type Sink interface {
	Write(sample Sample) error
}

// DefaultMaxSamples bounds retained samples per metric name.
const DefaultMaxSamples = 10000

// NewRecorder creates a Recorder. sink may be nil.
func NewRecorder(maxPerName int, sink Sink) *Recorder {
	if maxPerName <= 0 {
		maxPerName = DefaultMaxSamples
	}
	return &Recorder{
		samples:    make(map[string][]Sample),
		maxPerName: maxPerName,
		sink:       sink,
		now:        time.Now,
	}
}

// Record stores one sample under the metric name. When the per-metric bound
// is hit, the oldest half is dropped so recording stays O(1) amortized.
func (r *Recorder) Record(metric string, value float64) {
	r.mu.Lock()
	s := Sample{Metric: metric, Value: value, At: r.now()}
	buf := append(r.samples[metric], s)
	if len(buf) > r.maxPerName {
		keep := len(buf) / 2
		buf = append(buf[:0:0], buf[len(buf)-keep:]...)
	}
	r.samples[metric] = buf
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		// Sink errors do not fail the measured operation.
		_ = sink.Write(s)
	}
}

// RecordDuration records a latency sample in milliseconds.
func (r *Recorder) RecordDuration(metric string, d time.Duration) {
	r.Record(metric, float64(d)/float64(time.Millisecond))
}

// Stats aggregates the samples of a metric recorded within the trailing
// window. A zero window aggregates everything retained.
func (r *Recorder) Stats(metric string, window time.Duration) MetricStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Time{}
	if window > 0 {
		cutoff = r.now().Add(-window)
	}

	var values []float64
	for _, s := range r.samples[metric] {
		if s.At.Before(cutoff) {
			continue
		}
		values = append(values, s.Value)
	}
	return computeStats(values)
}

// Metrics returns the names with at least one retained sample.
func (r *Recorder) Metrics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.samples))
	for name, buf := range r.samples {
		if len(buf) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SetClock overrides the time source. Test hook.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func computeStats(values []float64) MetricStats {
	if len(values) == 0 {
		return MetricStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return MetricStats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Avg:   sum / float64(len(sorted)),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
	}
}

// percentile computes the nearest-rank percentile of ascending values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
