package plugins

import (
	"fmt"
	"math"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/plot"
	"github.com/flysightviewer/flysightviewer/pkg/units"
)

// Airspeed measurement derived from pitot differential pressure.
const (
	PitotSensor   = "PITOT"
	AirspeedCol   = "airspeed"
	PressureCol   = "pressure"
	seaLevelRho   = 1.225 // kg/m^3
)

func registerPitot(reg *engine.Registry) error {
	if err := register(reg, airspeedProducer()); err != nil {
		return fmt.Errorf("register pitot airspeed: %w", err)
	}
	return nil
}

// airspeedProducer derives indicated airspeed from differential
// pressure: v = sqrt(2*dp/rho), with sea-level density. Negative
// pressure samples clamp to zero speed.
func airspeedProducer() engine.MeasurementProducer {
	return engine.MeasurementFunc{
		Key:     engine.MeasurementKey(PitotSensor, AirspeedCol),
		Depends: []engine.Key{engine.MeasurementKey(PitotSensor, PressureCol)},
		Fn: func(e *engine.Eval) ([]float64, bool) {
			pressure, ok := e.GetMeasurement(PitotSensor, PressureCol)
			if !ok || len(pressure) == 0 {
				return nil, false
			}
			speed := make([]float64, len(pressure))
			for i, dp := range pressure {
				if dp > 0 {
					speed[i] = math.Sqrt(2 * dp / seaLevelRho)
				}
			}
			return speed, true
		},
	}
}

func pitotPlots(store *plot.Store) error {
	plots := []plot.Plot{
		{
			Category:        "Pitot",
			Name:            "Differential Pressure",
			Units:           "Pa",
			Color:           "#6D4C41",
			Sensor:          PitotSensor,
			Measurement:     PressureCol,
			MeasurementType: units.Pressure,
		},
		{
			Category:        "Pitot",
			Name:            "Indicated Airspeed",
			Units:           "m/s",
			Color:           "#1E88E5",
			Sensor:          PitotSensor,
			Measurement:     AirspeedCol,
			MeasurementType: units.Speed,
		},
	}
	for _, p := range plots {
		if err := store.RegisterPlot(p); err != nil {
			return fmt.Errorf("register %s plot: %w", p.Name, err)
		}
	}
	return nil
}
