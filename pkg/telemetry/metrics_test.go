package telemetry

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderStats(t *testing.T) {
	r := NewRecorder(0, nil)
	for i := 1; i <= 100; i++ {
		r.Record("search", float64(i))
	}

	stats := r.Stats("search", 0)
	assert.Equal(t, 100, stats.Count)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	assert.Equal(t, 50.5, stats.Avg)
	assert.Equal(t, 95.0, stats.P95)
	assert.Equal(t, 99.0, stats.P99)
}

func TestRecorderStatsUnknownMetric(t *testing.T) {
	r := NewRecorder(0, nil)
	assert.Equal(t, MetricStats{}, r.Stats("nope", 0))
}

func TestRecorderWindowFiltering(t *testing.T) {
	r := NewRecorder(0, nil)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r.SetClock(func() time.Time { return now })

	r.Record("lat", 10)
	now = base.Add(5 * time.Minute)
	r.Record("lat", 20)
	now = base.Add(10 * time.Minute)
	r.Record("lat", 30)

	stats := r.Stats("lat", 6*time.Minute)
	assert.Equal(t, 2, stats.Count, "only samples inside the window count")
	assert.Equal(t, 20.0, stats.Min)
	assert.Equal(t, 30.0, stats.Max)

	all := r.Stats("lat", 0)
	assert.Equal(t, 3, all.Count)
}

func TestRecorderBoundsRetainedSamples(t *testing.T) {
	r := NewRecorder(10, nil)
	for i := 0; i < 100; i++ {
		r.Record("m", float64(i))
	}
	stats := r.Stats("m", 0)
	assert.LessOrEqual(t, stats.Count, 10)
	assert.Equal(t, 99.0, stats.Max, "newest samples are kept")
}

func TestRecorderMetrics(t *testing.T) {
	r := NewRecorder(0, nil)
	r.Record("b", 1)
	r.Record("a", 1)
	assert.Equal(t, []string{"a", "b"}, r.Metrics())
}

type captureSink struct {
	samples []Sample
}

func (c *captureSink) Write(s Sample) error {
	c.samples = append(c.samples, s)
	return nil
}

func TestRecorderForwardsToSink(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(0, sink)
	r.Record("search", 12.5)

	require.Len(t, sink.samples, 1)
	assert.Equal(t, "search", sink.samples[0].Metric)
	assert.Equal(t, 12.5, sink.samples[0].Value)
}

func TestRecordDuration(t *testing.T) {
	r := NewRecorder(0, nil)
	r.RecordDuration("lat", 1500*time.Microsecond)
	assert.Equal(t, 1.5, r.Stats("lat", 0).Max)
}

func TestParquetSinkFlush(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewParquetSink(dir, 2)
	require.NoError(t, err)

	require.NoError(t, sink.Write(Sample{Metric: "m", Value: 1, At: time.Now()}))
	require.NoError(t, sink.Write(Sample{Metric: "m", Value: 2, At: time.Now()}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "batch size reached triggers a file write")

	require.NoError(t, sink.Write(Sample{Metric: "m", Value: 3, At: time.Now()}))
	require.NoError(t, sink.Flush())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPercentileSmallCounts(t *testing.T) {
	assert.Equal(t, 7.0, percentile([]float64{7}, 0.95))
	assert.Equal(t, 2.0, percentile([]float64{1, 2}, 0.99))
}
