// Package errors defines the query error taxonomy for the feature store.
//
// All query failures unwrap to one of four sentinels so callers can branch
// with errors.Is without inspecting messages:
//   - ErrNoBuffer: the series key was never populated
//   - ErrNoData: the buffer exists but no sample qualifies
//   - ErrInsufficientData: reserved; no live path returns it
//   - ErrMissingData: a grid point was empty under the Drop fill policy
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for query failures.
var (
	ErrNoBuffer         = errors.New("no buffer for series")
	ErrNoData           = errors.New("no qualifying data")
	ErrInsufficientData = errors.New("insufficient data")
	ErrMissingData      = errors.New("missing data at grid point")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// NoBufferError reports a query against a series key that was never
// populated. It unwraps to ErrNoBuffer.
type NoBufferError struct {
	Instrument string
	Feature    string
}

func (e *NoBufferError) Error() string {
	return fmt.Sprintf("no buffer for series %s/%s", e.Instrument, e.Feature)
}

func (e *NoBufferError) Unwrap() error {
	return ErrNoBuffer
}

// NewNoBuffer creates a NoBufferError for the given series key.
func NewNoBuffer(instrument, feature string) error {
	return &NoBufferError{Instrument: instrument, Feature: feature}
}

// MissingDataError reports an empty grid point rejected by the Drop fill
// policy. It unwraps to ErrMissingData.
type MissingDataError struct {
	TimestampMs int64
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data at grid point %s",
		time.UnixMilli(e.TimestampMs).UTC().Format(time.RFC3339Nano))
}

func (e *MissingDataError) Unwrap() error {
	return ErrMissingData
}

// NewMissingData creates a MissingDataError for the given grid point.
func NewMissingData(timestampMs int64) error {
	return &MissingDataError{TimestampMs: timestampMs}
}

// IsNoBuffer returns true if err indicates a never-populated series key.
func IsNoBuffer(err error) bool {
	return errors.Is(err, ErrNoBuffer)
}

// IsNoData returns true if err indicates an empty query result.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsMissingData returns true if err indicates an empty grid point.
func IsMissingData(err error) bool {
	return errors.Is(err, ErrMissingData)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
