// Package summary computes running statistics over series windows,
// optionally including DDSketch-based percentiles.
package summary

import (
	"math"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/tickflow/featstore/types"
)

// Summary holds the statistics of one series window.
type Summary struct {
	Count   int64
	Sum     float64
	Min     float64
	Max     float64
	Avg     float64
	FirstTs int64
	LastTs  int64

	// Percentiles; valid only when HasPercentiles is true.
	P50, P90, P95, P99 float64
	HasPercentiles     bool
}

// Streaming maintains running statistics for a window of samples.
// It supports optional percentile calculation using DDSketch.
type Streaming struct {
	mu sync.Mutex

	count   int64
	sum     float64
	min     float64
	max     float64
	firstTs int64
	lastTs  int64

	// DDSketch for percentiles (nil if disabled)
	sketch *ddsketch.DDSketch
}

// NewStreaming creates a Streaming summary. When enablePercentile is true a
// DDSketch with the given relative accuracy is attached.
func NewStreaming(enablePercentile bool, accuracy float64) *Streaming {
	s := &Streaming{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}

	if enablePercentile {
		sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
		if err == nil {
			s.sketch = sketch
		}
	}

	return s
}

// Add adds a value to the summary.
func (s *Streaming) Add(value float64, timestampMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.sum += value

	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}

	if s.firstTs == 0 || timestampMs < s.firstTs {
		s.firstTs = timestampMs
	}
	if timestampMs > s.lastTs {
		s.lastTs = timestampMs
	}

	if s.sketch != nil {
		s.sketch.Add(value)
	}
}

// AddSample adds a sample to the summary.
func (s *Streaming) AddSample(sample types.Sample) {
	s.Add(sample.Value, sample.TimestampMs)
}

// Count returns the number of values added.
func (s *Streaming) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// IsEmpty returns true if no values have been added.
func (s *Streaming) IsEmpty() bool {
	return s.Count() == 0
}

// Merge combines another summary into this one.
func (s *Streaming) Merge(other *Streaming) {
	if other == nil || other.Count() == 0 {
		return
	}

	s.mu.Lock()
	other.mu.Lock()
	defer s.mu.Unlock()
	defer other.mu.Unlock()

	s.count += other.count
	s.sum += other.sum

	if other.min < s.min {
		s.min = other.min
	}
	if other.max > s.max {
		s.max = other.max
	}

	if s.firstTs == 0 || (other.firstTs != 0 && other.firstTs < s.firstTs) {
		s.firstTs = other.firstTs
	}
	if other.lastTs > s.lastTs {
		s.lastTs = other.lastTs
	}

	if s.sketch != nil && other.sketch != nil {
		s.sketch.MergeWith(other.sketch)
	}
}

// Result returns the accumulated statistics.
func (s *Streaming) Result() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Summary{
		Count:   s.count,
		Sum:     s.sum,
		FirstTs: s.firstTs,
		LastTs:  s.lastTs,
	}

	if s.count > 0 {
		result.Avg = s.sum / float64(s.count)
		result.Min = s.min
		result.Max = s.max
	}

	if s.sketch != nil && s.count > 0 {
		p50, _ := s.sketch.GetValueAtQuantile(0.50)
		p90, _ := s.sketch.GetValueAtQuantile(0.90)
		p95, _ := s.sketch.GetValueAtQuantile(0.95)
		p99, _ := s.sketch.GetValueAtQuantile(0.99)
		result.P50, result.P90, result.P95, result.P99 = p50, p90, p95, p99
		result.HasPercentiles = true
	}

	return result
}

// Compute summarizes a slice of samples in one pass.
func Compute(samples []types.Sample, enablePercentile bool, accuracy float64) Summary {
	s := NewStreaming(enablePercentile, accuracy)
	for i := range samples {
		s.AddSample(samples[i])
	}
	return s.Result()
}
