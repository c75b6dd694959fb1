// Package wal implements the in-memory write-ahead pending list that
// batches buffered inserts until the next commit. Despite the name, nothing
// is written to disk: the list exists to make buffered ingestion cheap and
// the merge into queryable buffers an explicit, batched step.
package wal

import (
	"sync"
	"sync/atomic"

	"github.com/tickflow/featstore/types"
)

// Pending is an exclusively-locked growable list of insights awaiting
// commit. Draining is atomic relative to concurrent appenders: an insight is
// either part of a drain or still pending, never both and never lost.
type Pending struct {
	mu     sync.Mutex
	events []types.Insight

	// Statistics
	appendCount  atomic.Int64
	drainCount   atomic.Int64
	drainedTotal atomic.Int64
}

// New creates an empty pending list.
func New() *Pending {
	return &Pending{}
}

// NewWithCapacity creates an empty pending list with preallocated space.
func NewWithCapacity(capacity int) *Pending {
	if capacity < 0 {
		capacity = 0
	}
	return &Pending{
		events: make([]types.Insight, 0, capacity),
	}
}

// Append adds a single insight to the pending list.
func (p *Pending) Append(in types.Insight) {
	p.mu.Lock()
	p.events = append(p.events, in)
	p.mu.Unlock()

	p.appendCount.Add(1)
}

// AppendBatch adds a batch of insights to the pending list.
func (p *Pending) AppendBatch(ins []types.Insight) {
	if len(ins) == 0 {
		return
	}

	p.mu.Lock()
	p.events = append(p.events, ins...)
	p.mu.Unlock()

	p.appendCount.Add(int64(len(ins)))
}

// Drain removes and returns all pending insights. Returns nil when the list
// is empty. The returned slice is exclusively owned by the caller.
func (p *Pending) Drain() []types.Insight {
	p.mu.Lock()
	events := p.events
	p.events = nil
	p.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	p.drainCount.Add(1)
	p.drainedTotal.Add(int64(len(events)))
	return events
}

// Len returns the number of pending insights.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Stats returns pending-list statistics.
func (p *Pending) Stats() PendingStats {
	p.mu.Lock()
	pending := len(p.events)
	p.mu.Unlock()

	return PendingStats{
		Pending:      pending,
		AppendCount:  p.appendCount.Load(),
		DrainCount:   p.drainCount.Load(),
		DrainedTotal: p.drainedTotal.Load(),
	}
}

// PendingStats holds pending-list statistics.
type PendingStats struct {
	Pending      int
	AppendCount  int64
	DrainCount   int64
	DrainedTotal int64
}
