package plugins

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/plot"
)

// ADEVSensor is the synthetic sensor the Allan deviation family lives
// under. Its measurements are all computed, never imported.
const ADEVSensor = "ALLAN_ADEV"

// CommonTaus is the shared averaging-time axis in seconds. Each per-axis
// deviation pairs with it; sharing happens through the session cache, so
// the axis is computed once per session no matter how many axes resolve.
const CommonTaus = "common_taus"

// MinADEVSamples is the minimum IMU sample count for a meaningful
// deviation estimate.
const MinADEVSamples = 2000

// Raw IMU channels log accelerometer axes in g and gyro axes in deg/s;
// deviations are reported in SI.
const (
	accelToSI = 9.80665
	gyroToSI  = math.Pi / 180.0
)

// ADEVFunc computes the overlapping Allan deviation of data sampled at
// rate Hz over the given tau axis. Swappable so analysis tooling can
// substitute a higher-quality estimator.
var ADEVFunc func(data []float64, rate float64, taus []float64) (tausOut, adevs []float64, err error) = overlappingADEV

// adevAxes maps each output measurement to its raw IMU channel and the
// factor converting it to SI units.
var adevAxes = []struct {
	name   string
	column string
	scale  float64
}{
	{"adev_ax", "ax", accelToSI},
	{"adev_ay", "ay", accelToSI},
	{"adev_az", "az", accelToSI},
	{"adev_wx", "wx", gyroToSI},
	{"adev_wy", "wy", gyroToSI},
	{"adev_wz", "wz", gyroToSI},
}

func registerAllan(reg *engine.Registry) error {
	if err := register(reg, commonTausProducer()); err != nil {
		return fmt.Errorf("register %s: %w", CommonTaus, err)
	}
	for _, axis := range adevAxes {
		if err := register(reg, adevProducer(axis.name, axis.column, axis.scale)); err != nil {
			return fmt.Errorf("register %s: %w", axis.name, err)
		}
	}
	return nil
}

// commonTausProducer builds the octave tau axis: m/rate for
// m = 1, 2, 4, ... while 2m fits inside the sample count.
func commonTausProducer() engine.MeasurementProducer {
	return engine.MeasurementFunc{
		Key:     engine.MeasurementKey(ADEVSensor, CommonTaus),
		Depends: []engine.Key{engine.MeasurementKey("IMU", TimeColumn)},
		Fn: func(e *engine.Eval) ([]float64, bool) {
			times, ok := e.GetMeasurement("IMU", TimeColumn)
			if !ok || len(times) < MinADEVSamples {
				return nil, false
			}
			rate, ok := SamplingRate(times)
			if !ok {
				return nil, false
			}
			var taus []float64
			for m := 1; 2*m < len(times); m *= 2 {
				taus = append(taus, float64(m)/rate)
			}
			return taus, len(taus) > 0
		},
	}
}

func adevProducer(name, column string, scale float64) engine.MeasurementProducer {
	return engine.MeasurementFunc{
		Key: engine.MeasurementKey(ADEVSensor, name),
		Depends: []engine.Key{
			engine.MeasurementKey("IMU", TimeColumn),
			engine.MeasurementKey("IMU", column),
			engine.MeasurementKey(ADEVSensor, CommonTaus),
		},
		Fn: func(e *engine.Eval) ([]float64, bool) {
			times, ok := e.GetMeasurement("IMU", TimeColumn)
			if !ok {
				return nil, false
			}
			raw, ok := e.GetMeasurement("IMU", column)
			if !ok || len(raw) < MinADEVSamples {
				return nil, false
			}
			taus, ok := e.GetMeasurement(ADEVSensor, CommonTaus)
			if !ok {
				return nil, false
			}
			rate, ok := SamplingRate(times)
			if !ok {
				return nil, false
			}

			data := make([]float64, len(raw))
			for i, v := range raw {
				data[i] = v * scale
			}

			_, adevs, err := ADEVFunc(data, rate, taus)
			if err != nil {
				if Debug() {
					fmt.Fprintf(os.Stderr, "allan: %s failed for session %s: %v\n", name, e.SessionID(), err)
				}
				return nil, false
			}
			return adevs, len(adevs) > 0
		},
	}
}

// overlappingADEV is the default estimator: integrate to phase, then the
// overlapping two-sample variance at each tau. Taus that do not map to a
// usable averaging factor are skipped.
func overlappingADEV(data []float64, rate float64, taus []float64) ([]float64, []float64, error) {
	n := len(data)
	if n < 3 {
		return nil, nil, fmt.Errorf("need at least 3 samples, have %d", n)
	}
	if rate <= 0 {
		return nil, nil, fmt.Errorf("non-positive sampling rate %g", rate)
	}

	tau0 := 1.0 / rate
	phase := make([]float64, n+1)
	for i, v := range data {
		phase[i+1] = phase[i] + v*tau0
	}

	var outTaus, outADEVs []float64
	for _, tau := range taus {
		m := int(math.Round(tau * rate))
		if m < 1 || 2*m >= len(phase) {
			continue
		}
		t := float64(m) * tau0
		var sum float64
		count := 0
		for i := 0; i+2*m < len(phase); i++ {
			d := phase[i+2*m] - 2*phase[i+m] + phase[i]
			sum += d * d
			count++
		}
		if count == 0 {
			continue
		}
		avar := sum / (2 * float64(count) * t * t)
		outTaus = append(outTaus, t)
		outADEVs = append(outADEVs, math.Sqrt(avar))
	}
	if len(outTaus) == 0 {
		return nil, nil, errors.New("no usable averaging factors")
	}
	return outTaus, outADEVs, nil
}

func allanPlots(store *plot.Store) error {
	plots := []plot.Plot{
		{Category: "Allan Deviation", Name: "Accel X ADEV", Units: "m/s^2", Color: "#E53935", Sensor: ADEVSensor, Measurement: "adev_ax"},
		{Category: "Allan Deviation", Name: "Accel Y ADEV", Units: "m/s^2", Color: "#43A047", Sensor: ADEVSensor, Measurement: "adev_ay"},
		{Category: "Allan Deviation", Name: "Accel Z ADEV", Units: "m/s^2", Color: "#1E88E5", Sensor: ADEVSensor, Measurement: "adev_az"},
		{Category: "Allan Deviation", Name: "Gyro X ADEV", Units: "rad/s", Color: "#FB8C00", Sensor: ADEVSensor, Measurement: "adev_wx"},
		{Category: "Allan Deviation", Name: "Gyro Y ADEV", Units: "rad/s", Color: "#8E24AA", Sensor: ADEVSensor, Measurement: "adev_wy"},
		{Category: "Allan Deviation", Name: "Gyro Z ADEV", Units: "rad/s", Color: "#00897B", Sensor: ADEVSensor, Measurement: "adev_wz"},
	}
	for _, p := range plots {
		if err := store.RegisterPlot(p); err != nil {
			return fmt.Errorf("register %s plot: %w", p.Name, err)
		}
	}
	return nil
}
