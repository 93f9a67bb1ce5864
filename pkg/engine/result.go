package engine

// Result is the terminal outcome of resolving a key within a session.
// Once stored in the session cache a Result is never recomputed or
// overwritten for the lifetime of the session.
type Result struct {
	// Kind mirrors the kind of the resolved key.
	Kind KeyKind

	// Series holds the resolved measurement samples. Nil for attribute
	// keys and for unavailable measurements.
	Series []float64

	// Value holds the resolved attribute value: a float64 or a string.
	// Nil for measurement keys and for unavailable attributes.
	Value any

	// Available is false when no value could be computed. Unavailable is
	// a normal, expected outcome (missing sensor, insufficient data) and
	// is cached terminally like any value.
	Available bool

	// Fault marks an unavailable result that was caused by a defect in
	// the producer (a recovered panic) rather than a data condition.
	Fault bool
}

// unavailable builds a terminal unavailable result for key.
func unavailable(kind KeyKind) Result {
	return Result{Kind: kind}
}

// measurementResult builds an available measurement result.
func measurementResult(series []float64) Result {
	return Result{Kind: KindMeasurement, Series: series, Available: true}
}

// attributeResult builds an available attribute result.
func attributeResult(value any) Result {
	return Result{Kind: KindAttribute, Value: value, Available: true}
}
