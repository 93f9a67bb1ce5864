// Package plugins holds the built-in producers and display descriptors
// shipped with the viewer: sensor time aliases, flight time attributes,
// the Allan deviation family, and the pitot airspeed chain. It also
// exposes the numeric helpers third-party producers share.
package plugins

import (
	"math"
	"os"
	"strconv"
	"sync"
)

// DebugEnvVar enables extra plugin diagnostics on stderr when set to a
// true value. Read once per process.
const DebugEnvVar = "FLYSIGHT_DEBUG_PLUGINS"

var (
	debugOnce sync.Once
	debugOn   bool
)

// Debug reports whether plugin debug diagnostics are enabled.
func Debug() bool {
	debugOnce.Do(func() {
		if v, err := strconv.ParseBool(os.Getenv(DebugEnvVar)); err == nil {
			debugOn = v
		}
	})
	return debugOn
}

// SamplingRate derives the mean sampling rate in Hz from an ordered time
// series in seconds: (n-1) / (t_last - t_first). ok is false for fewer
// than two samples, a span below 1e-9 seconds, or a non-positive rate.
func SamplingRate(times []float64) (float64, bool) {
	n := len(times)
	if n < 2 {
		return 0, false
	}
	span := times[n-1] - times[0]
	if math.Abs(span) < 1e-9 {
		return 0, false
	}
	rate := float64(n-1) / span
	if rate <= 0 {
		return 0, false
	}
	return rate, true
}

// Duration returns max minus min of a time series in seconds. ok is
// false for an empty series or a negative or NaN result.
func Duration(times []float64) (float64, bool) {
	if len(times) == 0 {
		return 0, false
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}
	d := max - min
	if math.IsNaN(d) || d < 0 {
		return 0, false
	}
	return d, true
}
