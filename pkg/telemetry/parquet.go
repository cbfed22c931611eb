package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// sampleRecord is the Parquet row shape for one sample.
type sampleRecord struct {
	ID        string    `parquet:"id"`
	Metric    string    `parquet:"metric"`
	Value     float64   `parquet:"value"`
	Timestamp time.Time `parquet:"timestamp"`
}

// ParquetSink buffers samples and writes them to timestamped Parquet files
// in batches.
type ParquetSink struct {
	outputDir string
	mu        sync.Mutex
	buffer    []sampleRecord
	batchSize int
}

// NewParquetSink creates the output directory and a sink flushing every
// batchSize samples (default 100).
func NewParquetSink(outputDir string, batchSize int) (*ParquetSink, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ParquetSink{
		outputDir: outputDir,
		batchSize: batchSize,
		buffer:    make([]sampleRecord, 0, batchSize),
	}, nil
}

// Write implements Sink.
func (s *ParquetSink) Write(sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, sampleRecord{
		ID:        uuid.New().String(),
		Metric:    sample.Metric,
		Value:     sample.Value,
		Timestamp: sample.At.UTC(),
	})
	if len(s.buffer) >= s.batchSize {
		return s.flush()
	}
	return nil
}

// Flush writes any buffered samples out immediately.
func (s *ParquetSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush writes the buffer to a new Parquet file. Caller must hold the lock.
func (s *ParquetSink) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("metrics_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(s.outputDir, filename)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		return fmt.Errorf("failed to write metrics parquet file: %w", err)
	}

	s.buffer = s.buffer[:0]
	return nil
}
