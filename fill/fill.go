// Package fill implements the policies for reconciling a grid-aligned
// expected timestamp against a gap in a series.
package fill

import (
	ferrors "github.com/tickflow/featstore/errors"
)

// Strategy selects how a missing grid point is substituted.
type Strategy int

const (
	// ForwardFill substitutes the nearest prior value.
	ForwardFill Strategy = iota
	// Zero substitutes 0.0.
	Zero
	// Drop fails the query with a MissingDataError.
	Drop
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case ForwardFill:
		return "forward-fill"
	case Zero:
		return "zero"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Prior looks up the newest value at or before the given timestamp.
type Prior func(tsMs int64) (float64, bool)

// Resolve applies the strategy to a grid point known to hold no sample.
// ForwardFill consults prior; when no prior value exists either, the gap is
// indistinguishable from an empty series and ErrNoData is returned.
func Resolve(strategy Strategy, tsMs int64, prior Prior) (float64, error) {
	switch strategy {
	case ForwardFill:
		if v, ok := prior(tsMs); ok {
			return v, nil
		}
		return 0, ferrors.ErrNoData
	case Zero:
		return 0, nil
	case Drop:
		return 0, ferrors.NewMissingData(tsMs)
	default:
		return 0, ferrors.NewMissingData(tsMs)
	}
}
