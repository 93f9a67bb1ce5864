package engine

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Well-known session variable keys.
const (
	// SessionIDKey is the stable identifier of a session, unique within
	// the process lifetime. Import sets it to a content hash of the
	// source file; otherwise a random ID is generated.
	SessionIDKey = "SESSION_ID"

	// DeviceIDKey identifies the recording device.
	DeviceIDKey = "DEVICE_ID"

	// DefaultDeviceID is assigned when import cannot determine a device.
	DefaultDeviceID = "UNKNOWN_DEVICE"
)

// Session represents one imported telemetry recording: its string
// variables, its raw per-sensor sample tables, and the per-session cache
// of resolved values. Raw tables are populated by import and shadow any
// registered producer for the same key.
//
// A session is an independent unit of mutable state. One coarse lock
// serializes resolution and access: the full dependency tree for a
// top-level request runs under it, which is the at-most-once guarantee
// under concurrent use. Cached entries are terminal; nothing is ever
// recomputed or overwritten until the session is closed.
type Session struct {
	mu sync.Mutex

	// vars holds string attributes set at import time (SESSION_ID,
	// DEVICE_ID, firmware metadata and so on).
	vars map[string]string

	// sensors maps sensor ID -> measurement name -> raw samples.
	sensors map[string]map[string][]float64

	// results is the terminal cache, keyed by attribute or measurement
	// Key. Attribute and measurement entries never collide because the
	// key carries its kind.
	results map[Key]Result

	// active marks keys currently being resolved; membership means a
	// re-request is a dependency cycle.
	active map[Key]struct{}

	// stack is the current resolution path, for cycle reporting.
	stack []Key

	closed bool

	// ev is the evaluator this session is attached to. Nil until
	// adopted; raw lookups still work without one.
	ev *Evaluator
}

// NewSession creates an empty session with a generated SESSION_ID.
func NewSession() *Session {
	return &Session{
		vars:    map[string]string{SessionIDKey: uuid.NewString()},
		sensors: make(map[string]map[string][]float64),
		results: make(map[Key]Result),
		active:  make(map[Key]struct{}),
	}
}

// ID returns the session's stable identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars[SessionIDKey]
}

// SetVar sets a string variable. Used by import; variables shadow
// registered attribute producers with the same name.
func (s *Session) SetVar(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
}

// Var returns a string variable and whether it is set.
func (s *Session) Var(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[key]
	return v, ok
}

// VarKeys returns the names of all set variables, sorted.
func (s *Session) VarKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMeasurement stores a raw sample series under sensor/name.
func (s *Session) SetMeasurement(sensor, name string, samples []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sensors[sensor] == nil {
		s.sensors[sensor] = make(map[string][]float64)
	}
	s.sensors[sensor][name] = samples
}

// SensorKeys returns the IDs of all sensors with raw data, sorted.
func (s *Session) SensorKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.sensors))
	for k := range s.sensors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MeasurementKeys returns the raw measurement names of a sensor, sorted.
func (s *Session) MeasurementKeys(sensor string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.sensors[sensor]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasRawMeasurement reports whether sensor/name exists as imported data.
func (s *Session) HasRawMeasurement(sensor, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rawMeasurement(sensor, name)
	return ok
}

// GetMeasurement returns the series for sensor/name: the raw table entry
// when present, otherwise the resolved value from the attached
// evaluator. ok is false when the value is unavailable.
func (s *Session) GetMeasurement(sensor, name string) ([]float64, bool) {
	s.mu.Lock()
	if raw, ok := s.rawMeasurement(sensor, name); ok {
		s.mu.Unlock()
		return raw, true
	}
	ev := s.ev
	s.mu.Unlock()

	if ev == nil {
		return nil, false
	}
	r, err := ev.Resolve(s, MeasurementKey(sensor, name))
	if err != nil || !r.Available {
		return nil, false
	}
	return r.Series, true
}

// GetAttribute returns the value for an attribute name: the session
// variable when set, otherwise the resolved value from the attached
// evaluator. ok is false when the value is unavailable.
func (s *Session) GetAttribute(name string) (any, bool) {
	s.mu.Lock()
	if v, ok := s.vars[name]; ok {
		s.mu.Unlock()
		return v, true
	}
	ev := s.ev
	s.mu.Unlock()

	if ev == nil {
		return nil, false
	}
	r, err := ev.Resolve(s, AttributeKey(name))
	if err != nil || !r.Available {
		return nil, false
	}
	return r.Value, true
}

// Close destroys the session: all cache entries are invalidated and
// further resolution fails. Closing is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.results = make(map[Key]Result)
	s.active = make(map[Key]struct{})
	s.stack = nil
	if s.ev != nil {
		s.ev.sessionClosed()
		s.ev = nil
	}
}

// rawMeasurement looks up an imported series. Caller holds s.mu.
func (s *Session) rawMeasurement(sensor, name string) ([]float64, bool) {
	table, ok := s.sensors[sensor]
	if !ok {
		return nil, false
	}
	samples, ok := table[name]
	return samples, ok
}
