package clock

import (
	"fmt"
	"log"
	"math"
	"time"
)

// OverflowError reports a duration whose nanosecond value cannot be
// represented in a time.Duration's int64 nanosecond count -- i.e. a date
// past roughly the year 2262, the OverflowYear computed from math.MaxInt64.
type OverflowError struct {
	NanosValue   uint64 // saturated; the true value did not fit
	OverflowYear int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("clock: timestamp overflow, corresponds to year %d", e.OverflowYear)
}

const secondsPerYear = 365.25 * 24 * 3600

// SafeDurationToNanosChecked converts d (measured since the Unix epoch) to a
// uint64 nanosecond count, reporting an error instead of wrapping if d does
// not fit. Prefer this over SafeDurationToNanos in new code.
func SafeDurationToNanosChecked(d time.Duration) (uint64, error) {
	if d < 0 {
		return 0, fmt.Errorf("clock: duration before epoch")
	}
	ns := d.Nanoseconds()
	if ns < 0 {
		// Duration itself overflowed int64 nanoseconds.
		overflowSeconds := float64(math.MaxInt64) / 1e9
		overflowYear := 1970 + int64(overflowSeconds/secondsPerYear)
		return 0, &OverflowError{NanosValue: math.MaxUint64, OverflowYear: overflowYear}
	}
	return uint64(ns), nil
}

// SafeDurationToNanos converts d to nanoseconds, panicking on overflow. Kept
// for call sites that cannot meaningfully recover from a corrupted clock;
// new code should call SafeDurationToNanosChecked and handle the error.
func SafeDurationToNanos(d time.Duration) uint64 {
	ns, err := SafeDurationToNanosChecked(d)
	if err != nil {
		panic(fmt.Sprintf("clock: %v -- system requires a wider timestamp representation past this date", err))
	}
	return ns
}

// ParseExternalTimestampSafe parses an RFC3339 timestamp from an external
// source (an exchange feed, a peer message). Any failure -- bad format,
// negative, or out of range -- is logged as a warning and answered with the
// current time rather than propagated, so a malformed upstream timestamp can
// never crash or stall message processing.
func ParseExternalTimestampSafe(timestampStr, sourceName string) uint64 {
	t, err := time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		log.Printf("[clock] %s provided unparseable timestamp %q: %v, using current time", sourceName, timestampStr, err)
		return FastTimestampNanos()
	}
	d := t.Sub(time.Unix(0, 0))
	if d < 0 {
		log.Printf("[clock] %s provided negative timestamp: %s, using current time", sourceName, timestampStr)
		return FastTimestampNanos()
	}
	ns, err := SafeDurationToNanosChecked(d)
	if err != nil {
		log.Printf("[clock] %s provided out-of-range timestamp: %s, using current time", sourceName, timestampStr)
		return FastTimestampNanos()
	}
	return ns
}

// ParseExternalUnixTimestampSafe parses a Unix timestamp given as
// fractional seconds (the shape several exchange feeds use). As with
// ParseExternalTimestampSafe, any invalid input -- NaN, infinity, negative,
// or an overflowing conversion -- degrades to the current time with a
// logged warning instead of propagating an error.
func ParseExternalUnixTimestampSafe(timestampSeconds float64, sourceName string) uint64 {
	if math.IsNaN(timestampSeconds) {
		log.Printf("[clock] %s provided NaN timestamp, using current time", sourceName)
		return FastTimestampNanos()
	}
	if math.IsInf(timestampSeconds, 0) {
		log.Printf("[clock] %s provided infinite timestamp: %f, using current time", sourceName, timestampSeconds)
		return FastTimestampNanos()
	}
	if timestampSeconds < 0 {
		log.Printf("[clock] %s provided negative timestamp: %f, using current time", sourceName, timestampSeconds)
		return FastTimestampNanos()
	}

	nanosF := timestampSeconds * 1e9
	if nanosF > math.MaxUint64 {
		log.Printf("[clock] %s provided timestamp that overflows uint64: %f seconds, using current time", sourceName, timestampSeconds)
		return FastTimestampNanos()
	}
	return uint64(nanosF)
}

// TimestampAccuracyInfo reports the drift between the cached fast timestamp
// and a freshly syscalled precise timestamp, for health monitoring.
func TimestampAccuracyInfo() (fast, precise, driftNs uint64) {
	fast = FastTimestampNanos()
	precise = PreciseTimestampNanos()
	if fast > precise {
		driftNs = fast - precise
	} else {
		driftNs = precise - fast
	}
	return fast, precise, driftNs
}
