// Package types defines the core data types shared across the feature store.
//
// Key types:
//   - Insight: An upstream feature computation result entering the store
//   - SeriesKey: The (instrument, feature) pair identifying one series
//   - Sample: A single stored (timestamp, value) point
package types
