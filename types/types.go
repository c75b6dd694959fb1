package types

import "time"

// Instrument is an opaque reference to a tradable instrument. It forms half
// of a series key; the store never interprets it.
type Instrument string

// FeatureID names a numeric signal computed upstream (e.g. "rsi-14",
// "vwap-deviation"). It forms the other half of a series key.
type FeatureID string

// SeriesKey uniquely identifies one (instrument, feature) time series.
type SeriesKey struct {
	Instrument Instrument
	Feature    FeatureID
}

// String returns the canonical "instrument/feature" form of the key.
func (k SeriesKey) String() string {
	return string(k.Instrument) + "/" + string(k.Feature)
}

// Insight is a single feature computation result produced by the upstream
// pipeline. This is the only input type the store accepts.
type Insight struct {
	// Identity
	Instrument Instrument
	FeatureID  FeatureID

	// EventTime is when the underlying observation occurred, not when the
	// insight arrived. Arrival order carries no meaning.
	EventTime time.Time

	// Value is the computed feature value.
	Value float64

	// Meta carries opaque upstream metadata. The store never reads it.
	Meta map[string]string
}

// Key returns the series key for this insight.
func (in *Insight) Key() SeriesKey {
	return SeriesKey{Instrument: in.Instrument, Feature: in.FeatureID}
}

// Sample returns the stored representation of this insight.
func (in *Insight) Sample() Sample {
	return Sample{TimestampMs: in.EventTime.UnixMilli(), Value: in.Value}
}

// Sample is a single stored point of a series.
type Sample struct {
	TimestampMs int64 // Unix timestamp in milliseconds
	Value       float64
}

// TimestampTime returns the timestamp as a time.Time.
func (s *Sample) TimestampTime() time.Time {
	return time.UnixMilli(s.TimestampMs)
}

// InsightBatch is a reusable collection of insights for batch ingestion.
type InsightBatch struct {
	Insights []Insight
}

// NewInsightBatch creates a new batch with the given capacity.
func NewInsightBatch(capacity int) *InsightBatch {
	return &InsightBatch{
		Insights: make([]Insight, 0, capacity),
	}
}

// Add appends an insight to the batch.
func (b *InsightBatch) Add(in Insight) {
	b.Insights = append(b.Insights, in)
}

// Len returns the number of insights in the batch.
func (b *InsightBatch) Len() int {
	return len(b.Insights)
}

// Clear resets the batch for reuse.
func (b *InsightBatch) Clear() {
	b.Insights = b.Insights[:0]
}
