package buffer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tickflow/featstore/types"
)

// BoundedBuffer is a thread-safe, timestamp-ordered sample sequence for a
// single series. It has no fixed capacity; it is bounded only by time-based
// eviction (RemoveBefore). The sequence is always non-decreasing by
// timestamp after any operation, and duplicate timestamps are permitted.
type BoundedBuffer struct {
	mu   sync.RWMutex
	data []types.Sample

	// Statistics
	pushCount  atomic.Int64
	evictCount atomic.Int64
}

// New creates an empty BoundedBuffer.
func New() *BoundedBuffer {
	return &BoundedBuffer{}
}

// NewWithCapacity creates an empty BoundedBuffer with preallocated space.
func NewWithCapacity(capacity int) *BoundedBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &BoundedBuffer{
		data: make([]types.Sample, 0, capacity),
	}
}

// Push inserts a sample, keeping the buffer sorted by timestamp.
// Near-monotonic arrival hits the O(1) append path; an out-of-order sample
// is placed after the last existing entry with timestamp <= its own, so
// duplicates preserve arrival order among themselves.
func (b *BoundedBuffer) Push(timestampMs int64, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(types.Sample{TimestampMs: timestampMs, Value: value})
}

// PushSample inserts a prepared sample.
func (b *BoundedBuffer) PushSample(s types.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushLocked(s)
}

func (b *BoundedBuffer) pushLocked(s types.Sample) {
	n := len(b.data)
	if n == 0 || s.TimestampMs >= b.data[n-1].TimestampMs {
		b.data = append(b.data, s)
		b.pushCount.Add(1)
		return
	}

	// Scan backward for the last entry with timestamp <= the new one.
	i := n - 1
	for i >= 0 && b.data[i].TimestampMs > s.TimestampMs {
		i--
	}

	// Insert at position i+1 (front when no earlier entry exists).
	b.data = append(b.data, types.Sample{})
	copy(b.data[i+2:], b.data[i+1:])
	b.data[i+1] = s
	b.pushCount.Add(1)
}

// ExtendSorted merges a timestamp-ascending slice into the buffer.
// When the slice starts at or after the buffer's newest entry the whole
// slice is bulk-appended. Otherwise only the genuinely out-of-order prefix
// pays the per-element insertion cost; the remainder is bulk-appended once
// it reaches the buffer's current newest timestamp.
func (b *BoundedBuffer) ExtendSorted(samples []types.Sample) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := 0
	if n := len(b.data); n > 0 {
		for i < len(samples) && samples[i].TimestampMs < b.data[len(b.data)-1].TimestampMs {
			b.pushLocked(samples[i])
			i++
		}
	}

	if i < len(samples) {
		b.data = append(b.data, samples[i:]...)
		b.pushCount.Add(int64(len(samples) - i))
	}
}

// RemoveBefore evicts samples with timestamp strictly before cutoffMs.
// Returns the number of samples evicted.
func (b *BoundedBuffer) RemoveBefore(cutoffMs int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := 0
	for idx < len(b.data) && b.data[idx].TimestampMs < cutoffMs {
		idx++
	}
	if idx == 0 {
		return 0
	}

	n := copy(b.data, b.data[idx:])
	b.data = b.data[:n]
	b.evictCount.Add(int64(idx))
	return idx
}

// Last returns the value of the newest sample with timestamp <= tsMs.
func (b *BoundedBuffer) Last(tsMs int64) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.data) - 1; i >= 0; i-- {
		if b.data[i].TimestampMs <= tsMs {
			return b.data[i].Value, true
		}
	}
	return 0, false
}

// ValueAt returns the value of the newest sample with timestamp exactly tsMs.
func (b *BoundedBuffer) ValueAt(tsMs int64) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.data) - 1; i >= 0; i-- {
		switch {
		case b.data[i].TimestampMs == tsMs:
			return b.data[i].Value, true
		case b.data[i].TimestampMs < tsMs:
			return 0, false
		}
	}
	return 0, false
}

// Lag returns the value at position k (0 = most recent) among samples with
// timestamp in [endBoundMs, tsMs], scanned newest to oldest. The second
// return is false when fewer than k+1 samples qualify.
func (b *BoundedBuffer) Lag(tsMs, endBoundMs int64, k int) (float64, bool) {
	if k < 0 {
		return 0, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := 0
	for i := len(b.data) - 1; i >= 0; i-- {
		ts := b.data[i].TimestampMs
		if ts > tsMs {
			continue
		}
		if ts < endBoundMs {
			break
		}
		if seen == k {
			return b.data[i].Value, true
		}
		seen++
	}
	return 0, false
}

// Interval returns, oldest to newest, up to the last n values with
// timestamp <= tsMs. Fewer values are returned when fewer qualify. The scan
// is purely count-based; no grid interpolation is applied.
func (b *BoundedBuffer) Interval(tsMs int64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	end := len(b.data) - 1
	for end >= 0 && b.data[end].TimestampMs > tsMs {
		end--
	}
	if end < 0 {
		return nil
	}

	start := end - n + 1
	if start < 0 {
		start = 0
	}

	values := make([]float64, 0, end-start+1)
	for i := start; i <= end; i++ {
		values = append(values, b.data[i].Value)
	}
	return values
}

// Window returns, oldest to newest, the values of all samples with timestamp
// in (startMs, endMs]. The backward scan stops at the first sample at or
// before startMs.
func (b *BoundedBuffer) Window(startMs, endMs int64) []float64 {
	samples := b.WindowSamples(startMs, endMs)
	if len(samples) == 0 {
		return nil
	}

	values := make([]float64, len(samples))
	for i := range samples {
		values[i] = samples[i].Value
	}
	return values
}

// WindowSamples returns, oldest to newest, copies of all samples with
// timestamp in (startMs, endMs].
func (b *BoundedBuffer) WindowSamples(startMs, endMs int64) []types.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	end := len(b.data) - 1
	for end >= 0 && b.data[end].TimestampMs > endMs {
		end--
	}
	if end < 0 {
		return nil
	}

	start := end
	for start >= 0 && b.data[start].TimestampMs > startMs {
		start--
	}
	start++

	if start > end {
		return nil
	}

	out := make([]types.Sample, end-start+1)
	copy(out, b.data[start:end+1])
	return out
}

// Len returns the current number of samples.
func (b *BoundedBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// IsEmpty returns true if the buffer holds no samples.
func (b *BoundedBuffer) IsEmpty() bool {
	return b.Len() == 0
}

// TimeRange returns the oldest and newest timestamps in the buffer.
// Returns (0, 0) when the buffer is empty.
func (b *BoundedBuffer) TimeRange() (oldest, newest int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.data) == 0 {
		return 0, 0
	}
	return b.data[0].TimestampMs, b.data[len(b.data)-1].TimestampMs
}

// Duration returns the time span covered by the buffered samples.
func (b *BoundedBuffer) Duration() time.Duration {
	oldest, newest := b.TimeRange()
	return time.Duration(newest-oldest) * time.Millisecond
}

// Stats returns buffer statistics.
func (b *BoundedBuffer) Stats() BufferStats {
	b.mu.RLock()
	count := len(b.data)
	b.mu.RUnlock()

	return BufferStats{
		Count:      count,
		PushCount:  b.pushCount.Load(),
		EvictCount: b.evictCount.Load(),
	}
}

// BufferStats holds buffer statistics.
type BufferStats struct {
	Count      int
	PushCount  int64
	EvictCount int64
}
