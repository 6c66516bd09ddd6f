package telemetry

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Supported timing report units.
const (
	UnitSeconds      = "s"
	UnitMilliseconds = "ms"
	UnitMicroseconds = "us"
	UnitNanoseconds  = "ns"
)

// ErrUnknownUnit is returned for a unit other than s, ms, us (or µs) and ns.
var ErrUnknownUnit = errors.New("unknown time unit")

// FormatDuration converts d to a floating point count of unit.
func FormatDuration(d time.Duration, unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case UnitSeconds:
		return d.Seconds(), nil
	case UnitMilliseconds:
		return float64(d) / float64(time.Millisecond), nil
	case UnitMicroseconds, "µs":
		return float64(d) / float64(time.Microsecond), nil
	case UnitNanoseconds:
		return float64(d), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
}

// WriteTiming prints the timing report line "Time: <value> <unit>".
func WriteTiming(w io.Writer, d time.Duration, unit string) error {
	v, err := FormatDuration(d, unit)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Time: %f %s\n", v, unit)
	return err
}
