package engine

import "fmt"

// KeyKind distinguishes the two families of requestable values.
type KeyKind int

const (
	// KindAttribute identifies a single scalar or string value on a session.
	KindAttribute KeyKind = iota

	// KindMeasurement identifies an ordered numeric series under a sensor.
	KindMeasurement
)

// String returns the kind name for diagnostics.
func (k KeyKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindMeasurement:
		return "measurement"
	default:
		return "unknown"
	}
}

// Key identifies a requestable session value. It is the unit of caching
// and of dependency declaration. Keys are value types: two keys are equal
// iff their kind and fields match, and they are usable as map keys.
type Key struct {
	// Kind selects which fields are meaningful.
	Kind KeyKind

	// Sensor is the owning sensor ID. Only set for measurement keys.
	Sensor string

	// Name is the attribute name or the measurement name within the sensor.
	Name string
}

// MeasurementKey builds a Key for a sensor measurement channel.
func MeasurementKey(sensor, name string) Key {
	return Key{Kind: KindMeasurement, Sensor: sensor, Name: name}
}

// AttributeKey builds a Key for a session attribute.
func AttributeKey(name string) Key {
	return Key{Kind: KindAttribute, Name: name}
}

// String renders the key in the form used throughout logs and errors:
// "SENSOR/measurement" for measurements, "@name" for attributes.
func (k Key) String() string {
	if k.Kind == KindAttribute {
		return "@" + k.Name
	}
	return fmt.Sprintf("%s/%s", k.Sensor, k.Name)
}
