package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNoBufferError(t *testing.T) {
	err := NewNoBuffer("BTC-USD", "rsi-14")

	if !IsNoBuffer(err) {
		t.Error("expected IsNoBuffer to be true")
	}
	if IsNoData(err) {
		t.Error("expected IsNoData to be false")
	}
	if !stderrors.Is(err, ErrNoBuffer) {
		t.Error("expected errors.Is(err, ErrNoBuffer)")
	}

	var nbErr *NoBufferError
	if !stderrors.As(err, &nbErr) {
		t.Fatal("expected errors.As to find NoBufferError")
	}
	if nbErr.Instrument != "BTC-USD" || nbErr.Feature != "rsi-14" {
		t.Errorf("unexpected fields: %+v", nbErr)
	}
	if !strings.Contains(err.Error(), "BTC-USD/rsi-14") {
		t.Errorf("message should name the series: %q", err.Error())
	}
}

func TestMissingDataError(t *testing.T) {
	err := NewMissingData(1700000000000)

	if !IsMissingData(err) {
		t.Error("expected IsMissingData to be true")
	}

	var mdErr *MissingDataError
	if !stderrors.As(err, &mdErr) {
		t.Fatal("expected errors.As to find MissingDataError")
	}
	if mdErr.TimestampMs != 1700000000000 {
		t.Errorf("expected timestamp 1700000000000, got %d", mdErr.TimestampMs)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNoBuffer, ErrNoData, ErrInsufficientData, ErrMissingData}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && stderrors.Is(a, b) {
				t.Errorf("sentinels %v and %v should be distinct", a, b)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("wrapping nil should return nil")
	}

	err := Wrap(ErrNoData, "query lag")
	if !stderrors.Is(err, ErrNoData) {
		t.Error("wrapped error should unwrap to sentinel")
	}
	if err.Error() != "query lag: no qualifying data" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	err = Wrapf(ErrNoData, "series %s", "BTC-USD/rsi-14")
	if !stderrors.Is(err, ErrNoData) {
		t.Error("wrapped error should unwrap to sentinel")
	}

	// Double wrapping still unwraps.
	err = fmt.Errorf("outer: %w", err)
	if !IsNoData(err) {
		t.Error("double-wrapped error should still match")
	}
}
