package wal

import (
	"sync"
	"testing"
	"time"

	"github.com/tickflow/featstore/types"
)

func in(value float64) types.Insight {
	return types.Insight{
		Instrument: "BTC-USD",
		FeatureID:  "rsi-14",
		EventTime:  time.Now(),
		Value:      value,
	}
}

func TestPending_AppendDrain(t *testing.T) {
	p := New()

	if got := p.Drain(); got != nil {
		t.Errorf("drain of empty list should be nil, got %v", got)
	}

	p.Append(in(1))
	p.Append(in(2))
	p.AppendBatch([]types.Insight{in(3), in(4)})

	if p.Len() != 4 {
		t.Fatalf("expected 4 pending, got %d", p.Len())
	}

	events := p.Drain()
	if len(events) != 4 {
		t.Fatalf("expected 4 drained, got %d", len(events))
	}
	for i, e := range events {
		if e.Value != float64(i+1) {
			t.Errorf("position %d: expected %d, got %f", i, i+1, e.Value)
		}
	}

	if p.Len() != 0 {
		t.Errorf("expected empty after drain, got %d", p.Len())
	}
	if got := p.Drain(); got != nil {
		t.Errorf("second drain should be nil, got %v", got)
	}
}

func TestPending_AppendBatchEmpty(t *testing.T) {
	p := New()
	p.AppendBatch(nil)

	if p.Stats().AppendCount != 0 {
		t.Error("empty batch should not count as appends")
	}
}

// Every appended insight must appear in exactly one drain.
func TestPending_ConcurrentAppendDrain(t *testing.T) {
	p := NewWithCapacity(1024)

	numAppenders := 8
	perAppender := 500

	var wg sync.WaitGroup
	for a := 0; a < numAppenders; a++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perAppender; i++ {
				p.Append(in(1))
			}
		}()
	}

	var drained int
	var drainWg sync.WaitGroup
	stop := make(chan struct{})
	drainWg.Add(1)
	go func() {
		defer drainWg.Done()
		for {
			drained += len(p.Drain())
			select {
			case <-stop:
				drained += len(p.Drain())
				return
			default:
			}
		}
	}()

	wg.Wait()
	close(stop)
	drainWg.Wait()

	want := numAppenders * perAppender
	if drained != want {
		t.Errorf("expected %d drained in total, got %d", want, drained)
	}
}

func TestPending_Stats(t *testing.T) {
	p := New()

	p.Append(in(1))
	p.AppendBatch([]types.Insight{in(2), in(3)})
	p.Drain()
	p.Append(in(4))

	stats := p.Stats()
	if stats.AppendCount != 4 {
		t.Errorf("expected append_count=4, got %d", stats.AppendCount)
	}
	if stats.DrainCount != 1 {
		t.Errorf("expected drain_count=1, got %d", stats.DrainCount)
	}
	if stats.DrainedTotal != 3 {
		t.Errorf("expected drained_total=3, got %d", stats.DrainedTotal)
	}
	if stats.Pending != 1 {
		t.Errorf("expected pending=1, got %d", stats.Pending)
	}
}
