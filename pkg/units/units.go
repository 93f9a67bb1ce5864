// Package units maps measurement types to metric/imperial display
// conversions. Conversion is a pure mapping with no state: plots declare
// a measurement type and the host converts values for display with
// displayValue = rawValue*Scale + Offset.
package units

import "fmt"

// System names a unit system.
type System string

const (
	Metric   System = "Metric"
	Imperial System = "Imperial"
)

// Spec holds the conversion parameters for one unit.
type Spec struct {
	// Label is the display label (e.g. "m/s", "mph").
	Label string

	// Scale is the multiplication factor applied to the raw SI value.
	Scale float64

	// Offset is added after scaling (used for temperature).
	Offset float64

	// Precision is the number of decimal places for display.
	Precision int
}

// TypeInfo holds the unit systems available for one measurement type.
type TypeInfo struct {
	// SIBase is the SI unit the raw data is stored in.
	SIBase string

	// Systems maps system name to its conversion spec.
	Systems map[System]Spec
}

// Measurement type names accepted on plot descriptors.
const (
	Distance      = "distance"
	Altitude      = "altitude"
	Speed         = "speed"
	VerticalSpeed = "vertical_speed"
	Acceleration  = "acceleration"
	Temperature   = "temperature"
	Pressure      = "pressure"
	Rotation      = "rotation"
	Angle         = "angle"
	MagneticField = "magnetic_field"
	Voltage       = "voltage"
	Percentage    = "percentage"
	Time          = "time"
	Count         = "count"
)

// registry holds every measurement type with its conversion specs.
var registry = map[string]TypeInfo{
	Distance: {"m", map[System]Spec{
		Metric:   {"m", 1.0, 0.0, 1},
		Imperial: {"ft", 3.28084, 0.0, 1},
	}},
	Altitude: {"m", map[System]Spec{
		Metric:   {"m", 1.0, 0.0, 0},
		Imperial: {"ft", 3.28084, 0.0, 0},
	}},
	Speed: {"m/s", map[System]Spec{
		Metric:   {"km/h", 3.6, 0.0, 1},
		Imperial: {"mph", 2.23694, 0.0, 1},
	}},
	VerticalSpeed: {"m/s", map[System]Spec{
		Metric:   {"km/h", 3.6, 0.0, 1},
		Imperial: {"mph", 2.23694, 0.0, 1},
	}},
	// 1 g = 9.80665 m/s^2
	Acceleration: {"m/s^2", map[System]Spec{
		Metric:   {"g", 0.101972, 0.0, 2},
		Imperial: {"g", 0.101972, 0.0, 2},
	}},
	Temperature: {"C", map[System]Spec{
		Metric:   {"°C", 1.0, 0.0, 1},
		Imperial: {"°F", 1.8, 32.0, 1},
	}},
	// 1 inHg = 3386.39 Pa
	Pressure: {"Pa", map[System]Spec{
		Metric:   {"kPa", 0.001, 0.0, 0},
		Imperial: {"inHg", 0.000295300, 0.0, 2},
	}},
	Rotation: {"deg/s", map[System]Spec{
		Metric:   {"deg/s", 1.0, 0.0, 1},
		Imperial: {"deg/s", 1.0, 0.0, 1},
	}},
	Angle: {"deg", map[System]Spec{
		Metric:   {"deg", 1.0, 0.0, 1},
		Imperial: {"deg", 1.0, 0.0, 1},
	}},
	// 1 T = 10000 gauss
	MagneticField: {"T", map[System]Spec{
		Metric:   {"gauss", 10000.0, 0.0, 4},
		Imperial: {"gauss", 10000.0, 0.0, 4},
	}},
	Voltage: {"V", map[System]Spec{
		Metric:   {"V", 1.0, 0.0, 2},
		Imperial: {"V", 1.0, 0.0, 2},
	}},
	Percentage: {"%", map[System]Spec{
		Metric:   {"%", 1.0, 0.0, 1},
		Imperial: {"%", 1.0, 0.0, 1},
	}},
	Time: {"s", map[System]Spec{
		Metric:   {"s", 1.0, 0.0, 2},
		Imperial: {"s", 1.0, 0.0, 2},
	}},
	Count: {"", map[System]Spec{
		Metric:   {"", 1.0, 0.0, 0},
		Imperial: {"", 1.0, 0.0, 0},
	}},
}

// Known reports whether measurementType has registered conversions.
func Known(measurementType string) bool {
	_, ok := registry[measurementType]
	return ok
}

// Types returns all registered measurement type names.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Lookup returns the conversion spec for a measurement type and system.
func Lookup(measurementType string, system System) (Spec, bool) {
	info, ok := registry[measurementType]
	if !ok {
		return Spec{}, false
	}
	spec, ok := info.Systems[system]
	return spec, ok
}

// Convert converts a raw SI value for display in the given system.
func Convert(measurementType string, system System, value float64) (float64, bool) {
	spec, ok := Lookup(measurementType, system)
	if !ok {
		return value, false
	}
	return value*spec.Scale + spec.Offset, true
}

// ConvertSeries converts a series for display. The input is unchanged;
// the result is a fresh slice. Unknown types return the input as-is.
func ConvertSeries(measurementType string, system System, values []float64) []float64 {
	spec, ok := Lookup(measurementType, system)
	if !ok {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*spec.Scale + spec.Offset
	}
	return out
}

// Format renders a converted value with the system's label and precision.
func Format(measurementType string, system System, value float64) string {
	spec, ok := Lookup(measurementType, system)
	if !ok {
		return fmt.Sprintf("%g", value)
	}
	converted := value*spec.Scale + spec.Offset
	if spec.Label == "" {
		return fmt.Sprintf("%.*f", spec.Precision, converted)
	}
	return fmt.Sprintf("%.*f %s", spec.Precision, converted, spec.Label)
}
