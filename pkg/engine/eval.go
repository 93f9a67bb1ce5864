package engine

// Eval is the session view handed to producers during resolution. Its
// accessors re-enter the evaluator, so a compute function pulls each of
// its declared inputs lazily by key; inputs are not pre-bound to
// arguments. All calls happen under the session lock held by the
// top-level request, on the resolving goroutine.
type Eval struct {
	ev *Evaluator
	s  *Session

	// recorders is a stack of requested-key sets, one per nested compute
	// invocation, used for declared-input verification in debug mode.
	recorders []map[Key]struct{}
}

// GetMeasurement returns the series for sensor/name, resolving through
// the evaluator when it is not raw imported data. ok is false when the
// value is unavailable or part of a dependency cycle.
func (e *Eval) GetMeasurement(sensor, name string) ([]float64, bool) {
	key := MeasurementKey(sensor, name)
	e.record(key)
	r, err := e.ev.resolve(e, key)
	if err != nil || !r.Available {
		return nil, false
	}
	return r.Series, true
}

// GetAttribute returns the value for an attribute name. Session
// variables (SESSION_ID, DEVICE_ID, import metadata) resolve directly;
// other names go through the evaluator. ok is false when unavailable.
func (e *Eval) GetAttribute(name string) (any, bool) {
	key := AttributeKey(name)
	e.record(key)
	r, err := e.ev.resolve(e, key)
	if err != nil || !r.Available {
		return nil, false
	}
	return r.Value, true
}

// SessionID returns the session's stable identifier. Not tracked as a
// dependency: producers use it to partition auxiliary state, not as a
// computed input.
func (e *Eval) SessionID() string {
	return e.s.vars[SessionIDKey]
}

// HasRawMeasurement reports whether sensor/name exists as imported data,
// without triggering resolution.
func (e *Eval) HasRawMeasurement(sensor, name string) bool {
	_, ok := e.s.rawMeasurement(sensor, name)
	return ok
}

// record notes a requested key in the innermost compute's recorder.
func (e *Eval) record(key Key) {
	if n := len(e.recorders); n > 0 {
		e.recorders[n-1][key] = struct{}{}
	}
}

func (e *Eval) pushRecorder() {
	e.recorders = append(e.recorders, make(map[Key]struct{}))
}

func (e *Eval) popRecorder() {
	e.recorders = e.recorders[:len(e.recorders)-1]
}

// topRecorder returns the requested-key set of the compute that just
// finished. Valid only between compute return and popRecorder.
func (e *Eval) topRecorder() map[Key]struct{} {
	if n := len(e.recorders); n > 0 {
		return e.recorders[n-1]
	}
	return nil
}
