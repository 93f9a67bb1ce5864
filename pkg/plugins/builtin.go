package plugins

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/plot"
)

// TimeColumn is the canonical name of the derived time measurement every
// sensor exposes regardless of what its raw channel is called.
const TimeColumn = "_time"

// Session-level time attributes derived from the GNSS time channel.
const (
	StartTimeAttr = "_START_TIME"
	ExitTimeAttr  = "_EXIT_TIME"
	DurationAttr  = "_DURATION"
)

// timeColumns maps each known sensor to the raw column its time lives
// in. Most FlySight sensors log epoch seconds in "time"; the external
// pitot tube logger writes an ISO column instead.
var timeColumns = map[string]string{
	"GNSS":       "time",
	"IMU":        "time",
	"BARO":       "time",
	"MAG":        "time",
	"HUM":        "time",
	"VBAT":       "time",
	"PITOT":      "time",
	"PITOT_TUBE": "IsoTime",
}

// RegisterBuiltins registers every built-in producer. Call once at
// startup, before the registry seals. A key already claimed by an
// earlier registration is skipped: first wins, and built-ins register
// last so plugins can override them.
func RegisterBuiltins(reg *engine.Registry) error {
	for sensor, column := range timeColumns {
		if err := register(reg, TimeProducer(sensor, column)); err != nil {
			return fmt.Errorf("register %s time alias: %w", sensor, err)
		}
	}
	for _, p := range flightTimeProducers() {
		if err := register(reg, p); err != nil {
			return fmt.Errorf("register flight time attributes: %w", err)
		}
	}
	if err := registerAllan(reg); err != nil {
		return err
	}
	if err := registerPitot(reg); err != nil {
		return err
	}
	return nil
}

// RegisterDescriptors registers the built-in plot and marker
// descriptors.
func RegisterDescriptors(store *plot.Store) error {
	if err := allanPlots(store); err != nil {
		return err
	}
	if err := pitotPlots(store); err != nil {
		return err
	}
	return flightMarkers(store)
}

// register adds a producer, treating a lost first-wins race as success.
func register(reg *engine.Registry, p engine.Producer) error {
	err := reg.Register(p)
	var ee *engine.EngineError
	if errors.As(err, &ee) && ee.Code == engine.ErrCodeDuplicateProducer {
		return nil
	}
	return err
}

// TimeProducer aliases a sensor's raw time channel to the canonical
// _time measurement. Unavailable when the sensor has no data.
func TimeProducer(sensor, column string) engine.MeasurementProducer {
	return engine.MeasurementFunc{
		Key:     engine.MeasurementKey(sensor, TimeColumn),
		Depends: []engine.Key{engine.MeasurementKey(sensor, column)},
		Fn: func(e *engine.Eval) ([]float64, bool) {
			return e.GetMeasurement(sensor, column)
		},
	}
}

func flightTimeProducers() []engine.Producer {
	gnssTime := engine.MeasurementKey("GNSS", TimeColumn)
	return []engine.Producer{
		engine.AttributeFunc{
			Key:     engine.AttributeKey(StartTimeAttr),
			Depends: []engine.Key{gnssTime},
			Fn: func(e *engine.Eval) (any, bool) {
				times, ok := e.GetMeasurement("GNSS", TimeColumn)
				if !ok || len(times) == 0 {
					return nil, false
				}
				return isoUTC(times[0]), true
			},
		},
		engine.AttributeFunc{
			Key:     engine.AttributeKey(ExitTimeAttr),
			Depends: []engine.Key{gnssTime},
			Fn: func(e *engine.Eval) (any, bool) {
				times, ok := e.GetMeasurement("GNSS", TimeColumn)
				if !ok || len(times) == 0 {
					return nil, false
				}
				return isoUTC(times[len(times)-1]), true
			},
		},
		engine.AttributeFunc{
			Key:     engine.AttributeKey(DurationAttr),
			Depends: []engine.Key{gnssTime},
			Fn: func(e *engine.Eval) (any, bool) {
				times, ok := e.GetMeasurement("GNSS", TimeColumn)
				if !ok {
					return nil, false
				}
				d, ok := Duration(times)
				if !ok {
					return nil, false
				}
				return d, true
			},
		},
	}
}

func flightMarkers(store *plot.Store) error {
	markers := []plot.Marker{
		{
			Category:     "Flight",
			DisplayName:  "Start",
			ShortLabel:   "START",
			Color:        "#43A047",
			AttributeKey: StartTimeAttr,
			Measurements: [][2]string{{"GNSS", TimeColumn}},
		},
		{
			Category:     "Flight",
			DisplayName:  "Exit",
			ShortLabel:   "EXIT",
			Color:        "#E53935",
			AttributeKey: ExitTimeAttr,
			Measurements: [][2]string{{"GNSS", "velD"}},
			Editable:     true,
		},
	}
	for _, m := range markers {
		if err := store.RegisterMarker(m); err != nil {
			return fmt.Errorf("register %s marker: %w", m.DisplayName, err)
		}
	}
	return nil
}

// isoUTC renders epoch seconds as an ISO-8601 UTC timestamp with
// millisecond precision and a literal Z suffix.
func isoUTC(epoch float64) string {
	sec := math.Floor(epoch)
	nsec := math.Round((epoch - sec) * 1e9)
	return time.Unix(int64(sec), int64(nsec)).UTC().Format("2006-01-02T15:04:05.000Z")
}
