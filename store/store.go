package store

import (
	"hash/fnv"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tickflow/featstore/buffer"
	"github.com/tickflow/featstore/config"
	ferrors "github.com/tickflow/featstore/errors"
	"github.com/tickflow/featstore/fill"
	"github.com/tickflow/featstore/logging"
	"github.com/tickflow/featstore/summary"
	"github.com/tickflow/featstore/types"
	"github.com/tickflow/featstore/wal"
)

// shard is one lock stripe of the series map.
type shard struct {
	mu      sync.RWMutex
	buffers map[types.SeriesKey]*buffer.BoundedBuffer
}

// FeatureStore is the concurrent keyed feature store. Buffers are created
// lazily on first write and live for the process lifetime; TTL eviction
// empties them but never deletes them.
type FeatureStore struct {
	// Configuration, immutable after construction.
	ttl                time.Duration
	minInterval        time.Duration
	parallelism        int
	percentileEnabled  bool
	percentileAccuracy float64

	shards  []*shard
	pending *wal.Pending

	log *slog.Logger

	// Statistics
	stats Stats
}

// Stats holds store statistics.
type Stats struct {
	Inserts        atomic.Int64
	BatchesMerged  atomic.Int64
	Commits        atomic.Int64
	SamplesMerged  atomic.Int64
	SamplesEvicted atomic.Int64
}

// New creates a FeatureStore from the given configuration. A nil cfg uses
// DefaultConfig.
func New(cfg *config.Config) (*FeatureStore, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, ferrors.Wrap(err, "invalid config")
	}

	parallelism := cfg.Commit.Parallelism
	if parallelism == 0 {
		parallelism = runtime.NumCPU()
	}

	shards := make([]*shard, cfg.Store.Shards)
	for i := range shards {
		shards[i] = &shard{buffers: make(map[types.SeriesKey]*buffer.BoundedBuffer)}
	}

	return &FeatureStore{
		ttl:                cfg.Retention.TTL.Std(),
		minInterval:        cfg.Grid.MinInterval(),
		parallelism:        parallelism,
		percentileEnabled:  cfg.Summary.PercentileEnabled,
		percentileAccuracy: cfg.Summary.Accuracy,
		shards:             shards,
		pending:            wal.New(),
		log:                logging.Component("store"),
	}, nil
}

// TTL returns the retention duration.
func (s *FeatureStore) TTL() time.Duration {
	return s.ttl
}

// MinInterval returns the grid spacing.
func (s *FeatureStore) MinInterval() time.Duration {
	return s.minInterval
}

func (s *FeatureStore) shardFor(key types.SeriesKey) *shard {
	h := fnv.New64a()
	h.Write([]byte(key.Instrument))
	h.Write([]byte{0})
	h.Write([]byte(key.Feature))
	return s.shards[h.Sum64()%uint64(len(s.shards))]
}

// lookup returns the buffer for a key, or false if it was never created.
func (s *FeatureStore) lookup(key types.SeriesKey) (*buffer.BoundedBuffer, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	b, ok := sh.buffers[key]
	sh.mu.RUnlock()
	return b, ok
}

// getOrCreate returns the buffer for a key, creating it atomically on first
// use.
func (s *FeatureStore) getOrCreate(key types.SeriesKey) *buffer.BoundedBuffer {
	sh := s.shardFor(key)

	sh.mu.RLock()
	b, ok := sh.buffers[key]
	sh.mu.RUnlock()
	if ok {
		return b
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b, ok := sh.buffers[key]; ok {
		return b
	}
	b = buffer.New()
	sh.buffers[key] = b
	return b
}

// Insert merges a single insight into its series immediately. No TTL
// eviction runs on this path; eviction happens only during batch merges and
// commits.
func (s *FeatureStore) Insert(in types.Insight) {
	s.getOrCreate(in.Key()).PushSample(in.Sample())
	s.stats.Inserts.Add(1)
}

// InsertBatch merges a batch of insights. The eviction reference time is the
// maximum event time observed in the batch.
func (s *FeatureStore) InsertBatch(ins []types.Insight) error {
	if len(ins) == 0 {
		return nil
	}

	referenceMs := ins[0].EventTime.UnixMilli()
	for i := 1; i < len(ins); i++ {
		if ts := ins[i].EventTime.UnixMilli(); ts > referenceMs {
			referenceMs = ts
		}
	}

	err := s.mergeGroups(partition(ins), referenceMs-s.ttl.Milliseconds())
	if err == nil {
		s.stats.BatchesMerged.Add(1)
	}
	return err
}

// InsertBuffered appends an insight to the pending list. It does not affect
// queryable state until the next Commit.
func (s *FeatureStore) InsertBuffered(in types.Insight) {
	s.pending.Append(in)
}

// InsertBatchBuffered appends a batch of insights to the pending list. It
// does not affect queryable state until the next Commit.
func (s *FeatureStore) InsertBatchBuffered(ins []types.Insight) {
	s.pending.AppendBatch(ins)
}

// Commit drains the pending list and merges it into the queryable buffers,
// evicting samples older than currentTime minus the TTL. A commit with an
// empty pending list is a no-op.
//
// TTL semantics are monotonic only if callers invoke Commit with
// non-decreasing currentTime; an earlier cutoff widens retention for that
// call only.
func (s *FeatureStore) Commit(currentTime time.Time) error {
	events := s.pending.Drain()
	if len(events) == 0 {
		return nil
	}

	groups := partition(events)
	err := s.mergeGroups(groups, currentTime.UnixMilli()-s.ttl.Milliseconds())
	if err != nil {
		return err
	}

	s.stats.Commits.Add(1)
	s.log.Debug("commit complete",
		"events", len(events),
		"series", len(groups),
		"current_time", currentTime)
	return nil
}

// partition groups insights by series key. Same-key insights must co-locate
// in a single group, so this phase is single-threaded.
func partition(ins []types.Insight) map[types.SeriesKey][]types.Sample {
	groups := make(map[types.SeriesKey][]types.Sample)
	for i := range ins {
		key := ins[i].Key()
		groups[key] = append(groups[key], ins[i].Sample())
	}
	return groups
}

// mergeGroups fans out over key groups, each task sorting its group,
// merging it into the key's buffer and evicting expired samples as one
// unit. Partitioning guarantees no key is processed by two tasks.
func (s *FeatureStore) mergeGroups(groups map[types.SeriesKey][]types.Sample, cutoffMs int64) error {
	g := new(errgroup.Group)
	g.SetLimit(s.parallelism)

	for key, samples := range groups {
		key, samples := key, samples
		g.Go(func() error {
			sort.Slice(samples, func(i, j int) bool {
				return samples[i].TimestampMs < samples[j].TimestampMs
			})

			b := s.getOrCreate(key)
			b.ExtendSorted(samples)
			evicted := b.RemoveBefore(cutoffMs)

			s.stats.SamplesMerged.Add(int64(len(samples)))
			s.stats.SamplesEvicted.Add(int64(evicted))
			return nil
		})
	}

	return g.Wait()
}

// Last returns the value of the newest sample at or before ts, or false if
// the series was never populated or holds no qualifying sample.
func (s *FeatureStore) Last(instrument types.Instrument, feature types.FeatureID, ts time.Time) (float64, bool) {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return 0, false
	}
	return b.Last(ts.UnixMilli())
}

// Lag returns the value k grid steps back from ts (0 = most recent sample
// at or before ts). Only samples within (k+1) grid intervals of ts qualify.
// The scan is count-based over the samples actually present; fill
// strategies apply to grid point reads (At), not to Lag.
//
// Returns a NoBufferError when the series was never populated and ErrNoData
// when fewer than k+1 samples qualify.
func (s *FeatureStore) Lag(instrument types.Instrument, feature types.FeatureID, ts time.Time, k int, _ ...fill.Strategy) (float64, error) {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return 0, ferrors.NewNoBuffer(string(instrument), string(feature))
	}

	endBound := ts.Add(-time.Duration(k+1) * s.minInterval)
	v, ok := b.Lag(ts.UnixMilli(), endBound.UnixMilli(), k)
	if !ok {
		return 0, ferrors.ErrNoData
	}
	return v, nil
}

// Interval returns, oldest to newest, up to the last n values at or before
// ts. Like Lag the scan is count-based; missing grid slots are not filled.
//
// Returns a NoBufferError when the series was never populated and ErrNoData
// when no sample qualifies.
func (s *FeatureStore) Interval(instrument types.Instrument, feature types.FeatureID, ts time.Time, n int, _ ...fill.Strategy) ([]float64, error) {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return nil, ferrors.NewNoBuffer(string(instrument), string(feature))
	}

	values := b.Interval(ts.UnixMilli(), n)
	if len(values) == 0 {
		return nil, ferrors.ErrNoData
	}
	return values, nil
}

// Window returns, oldest to newest, all values with timestamp in
// (ts-duration, ts]. An unknown series yields nil.
func (s *FeatureStore) Window(instrument types.Instrument, feature types.FeatureID, ts time.Time, duration time.Duration) []float64 {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return nil
	}
	return b.Window(ts.Add(-duration).UnixMilli(), ts.UnixMilli())
}

// At resolves the value at a grid-aligned timestamp. A sample stored exactly
// at ts is returned as-is; otherwise the fill strategy decides: ForwardFill
// substitutes the nearest prior value, Zero substitutes 0, and Drop fails
// with a MissingDataError carrying ts.
func (s *FeatureStore) At(instrument types.Instrument, feature types.FeatureID, ts time.Time, strategy fill.Strategy) (float64, error) {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return 0, ferrors.NewNoBuffer(string(instrument), string(feature))
	}

	tsMs := ts.UnixMilli()
	if v, ok := b.ValueAt(tsMs); ok {
		return v, nil
	}
	return fill.Resolve(strategy, tsMs, b.Last)
}

// WindowSummary summarizes all samples with timestamp in (ts-duration, ts]:
// count, sum, min, max, avg and, when enabled, DDSketch percentiles.
//
// Returns a NoBufferError when the series was never populated and ErrNoData
// when the window is empty.
func (s *FeatureStore) WindowSummary(instrument types.Instrument, feature types.FeatureID, ts time.Time, duration time.Duration) (summary.Summary, error) {
	b, ok := s.lookup(types.SeriesKey{Instrument: instrument, Feature: feature})
	if !ok {
		return summary.Summary{}, ferrors.NewNoBuffer(string(instrument), string(feature))
	}

	samples := b.WindowSamples(ts.Add(-duration).UnixMilli(), ts.UnixMilli())
	if len(samples) == 0 {
		return summary.Summary{}, ferrors.ErrNoData
	}
	return summary.Compute(samples, s.percentileEnabled, s.percentileAccuracy), nil
}

// SeriesCount returns the number of series buffers created so far.
func (s *FeatureStore) SeriesCount() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.buffers)
		sh.mu.RUnlock()
	}
	return total
}

// PendingLen returns the number of insights awaiting commit.
func (s *FeatureStore) PendingLen() int {
	return s.pending.Len()
}

// StoreStats holds a point-in-time copy of store statistics.
type StoreStats struct {
	Inserts        int64
	BatchesMerged  int64
	Commits        int64
	SamplesMerged  int64
	SamplesEvicted int64
	PendingEvents  int
	SeriesCount    int
}

// StatsSnapshot returns current statistics.
func (s *FeatureStore) StatsSnapshot() StoreStats {
	return StoreStats{
		Inserts:        s.stats.Inserts.Load(),
		BatchesMerged:  s.stats.BatchesMerged.Load(),
		Commits:        s.stats.Commits.Load(),
		SamplesMerged:  s.stats.SamplesMerged.Load(),
		SamplesEvicted: s.stats.SamplesEvicted.Load(),
		PendingEvents:  s.pending.Len(),
		SeriesCount:    s.SeriesCount(),
	}
}
