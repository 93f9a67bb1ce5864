package engine

// Producer is the capability set shared by all registered plugins: an
// output key and a declaration of the input keys the compute function
// will request. Declared inputs document the dependency edge and let the
// evaluator warm the cache ahead of compute; they are not injected as
// arguments. Compute pulls each input by key through the Eval it
// receives, and is expected to request exactly the keys it declared.
type Producer interface {
	// OutputKey returns the key this producer resolves.
	OutputKey() Key

	// Inputs returns the keys the compute function depends on. Must be
	// pure: no side effects, stable across calls.
	Inputs() []Key
}

// MeasurementProducer computes an ordered numeric series. The returned
// series conventionally aligns index-for-index with the sensor's own
// time channel; producers that generate a reduced axis register it as an
// independent measurement instead.
type MeasurementProducer interface {
	Producer

	// Compute returns the series, or ok=false when the value is
	// unavailable for this session. An empty series is treated as
	// unavailable.
	Compute(e *Eval) ([]float64, bool)
}

// AttributeProducer computes a single scalar or string value.
type AttributeProducer interface {
	Producer

	// Compute returns a float64 or string value, or ok=false when the
	// value is unavailable for this session.
	Compute(e *Eval) (any, bool)
}

// MeasurementFunc adapts plain functions to MeasurementProducer.
type MeasurementFunc struct {
	Key     Key
	Depends []Key
	Fn      func(e *Eval) ([]float64, bool)
}

// OutputKey returns the producer's output key.
func (p MeasurementFunc) OutputKey() Key { return p.Key }

// Inputs returns the declared input keys.
func (p MeasurementFunc) Inputs() []Key { return p.Depends }

// Compute invokes the wrapped function.
func (p MeasurementFunc) Compute(e *Eval) ([]float64, bool) { return p.Fn(e) }

// AttributeFunc adapts plain functions to AttributeProducer.
type AttributeFunc struct {
	Key     Key
	Depends []Key
	Fn      func(e *Eval) (any, bool)
}

// OutputKey returns the producer's output key.
func (p AttributeFunc) OutputKey() Key { return p.Key }

// Inputs returns the declared input keys.
func (p AttributeFunc) Inputs() []Key { return p.Depends }

// Compute invokes the wrapped function.
func (p AttributeFunc) Compute(e *Eval) (any, bool) { return p.Fn(e) }
