package engine

import (
	"time"

	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// Evaluator resolves keys against sessions using the producer registry.
// Creating an evaluator seals the registry: the registration phase is
// over once requests can be served.
//
// Resolution is synchronous and depth-first. The requested key's
// producer has its declared inputs resolved first (consuming cached
// results where present, so a shared dependency is computed once even
// across sibling subtrees), then compute runs with the session view and
// pulls its inputs by key. The outcome, value or unavailable, is cached
// terminally per (session, key).
type Evaluator struct {
	registry *Registry
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics

	// debug enables the declared-vs-requested input verification. Read
	// once at construction; affects diagnostics only, never results.
	debug bool

	// onDivergence, when set, is invoked instead of only logging when a
	// compute requests a different key set than it declared.
	onDivergence func(p Producer, missing, extra []Key)
}

// NewEvaluator creates an evaluator over a sealed registry. logger and
// metrics may be nil.
func NewEvaluator(registry *Registry, logger *telemetry.Logger, metrics *telemetry.Metrics, debug bool) *Evaluator {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	registry.Seal()
	return &Evaluator{
		registry: registry,
		logger:   logger.NewComponentLogger("evaluator"),
		metrics:  metrics,
		debug:    debug,
	}
}

// Adopt attaches a session to this evaluator so that the session's
// GetMeasurement/GetAttribute accessors resolve through it.
func (ev *Evaluator) Adopt(s *Session) {
	s.mu.Lock()
	s.ev = ev
	s.mu.Unlock()
	if ev.metrics != nil {
		ev.metrics.SessionOpened()
	}
}

// Resolve resolves key within session s and returns its terminal result.
// The error return is nil for both values and unavailable outcomes; it
// is non-nil only for structural failures (a dependency cycle, or a
// closed session), which are never cached.
func (ev *Evaluator) Resolve(s *Session, key Key) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		err := NewConfigError("session is closed", nil).WithKey(key).WithSession(s.vars[SessionIDKey])
		err.Code = ErrCodeSessionClosed
		return unavailable(key.Kind), err
	}

	e := &Eval{ev: ev, s: s}
	return ev.resolve(e, key)
}

// resolve is the recursive core. The session lock is held by the
// top-level caller for the whole tree.
func (ev *Evaluator) resolve(e *Eval, key Key) (Result, error) {
	s := e.s

	// Terminal cache check: the at-most-once guarantee.
	if r, ok := s.results[key]; ok {
		if ev.metrics != nil {
			ev.metrics.CacheHit()
		}
		return r, nil
	}

	// Raw imported data shadows registered producers.
	if key.Kind == KindMeasurement {
		if raw, ok := s.rawMeasurement(key.Sensor, key.Name); ok {
			return measurementResult(raw), nil
		}
	} else if v, ok := s.vars[key.Name]; ok {
		return attributeResult(v), nil
	}

	if ev.metrics != nil {
		ev.metrics.CacheMiss()
	}

	// A key re-entered while in progress is a dependency cycle. Not
	// cached: a registry fix makes the key resolvable again.
	if _, inProgress := s.active[key]; inProgress {
		err := NewCycleError(cyclePath(s.stack, key)).WithSession(s.vars[SessionIDKey])
		ev.logger.WithField("key", key.String()).Error(err.Message)
		if ev.metrics != nil {
			ev.metrics.ResolveCompleted(telemetry.ResolveCycle)
		}
		return unavailable(key.Kind), err
	}

	p, ok := ev.registry.Lookup(key)
	if !ok {
		ev.logger.WithField("key", key.String()).Debug("No producer registered; caching unavailable")
		r := unavailable(key.Kind)
		s.results[key] = r
		if ev.metrics != nil {
			ev.metrics.ResolveCompleted(telemetry.ResolveUnavailable)
		}
		return r, nil
	}

	s.active[key] = struct{}{}
	s.stack = append(s.stack, key)
	defer func() {
		delete(s.active, key)
		s.stack = s.stack[:len(s.stack)-1]
	}()

	// Warm the declared inputs. Unavailable inputs are the producer's
	// concern; a cycle below is structural and propagates uncached.
	for _, in := range p.Inputs() {
		if _, err := ev.resolve(e, in); err != nil {
			return unavailable(key.Kind), err
		}
	}

	r, err := ev.invoke(e, key, p)
	if err != nil {
		// Compute fault: logged with context, cached as unavailable so
		// one faulty plugin cannot block unrelated keys, flagged for
		// diagnostics.
		ev.logger.WithError(err).
			WithField("key", key.String()).
			WithField("session_id", s.vars[SessionIDKey]).
			Error("Producer compute faulted")
		r = unavailable(key.Kind)
		r.Fault = true
		if ev.metrics != nil {
			ev.metrics.ComputeFault()
		}
	}

	s.results[key] = r
	if ev.metrics != nil {
		ev.metrics.ResolveCompleted(resolveOutcome(r))
	}
	return r, nil
}

// invoke runs a producer's compute with panic recovery and, in debug
// mode, declared-input verification.
func (ev *Evaluator) invoke(e *Eval, key Key, p Producer) (r Result, err error) {
	start := time.Now()

	if ev.debug {
		e.pushRecorder()
		defer e.popRecorder()
	}

	defer func() {
		if v := recover(); v != nil {
			err = NewFaultError(v).WithKey(key).WithSession(e.SessionID())
		}
		if ev.metrics != nil {
			ev.metrics.ObserveCompute(key.String(), time.Since(start).Seconds())
		}
	}()

	switch producer := p.(type) {
	case MeasurementProducer:
		series, ok := producer.Compute(e)
		if !ok || len(series) == 0 {
			r = unavailable(key.Kind)
		} else {
			r = measurementResult(series)
		}
	case AttributeProducer:
		value, ok := producer.Compute(e)
		if !ok || value == nil {
			r = unavailable(key.Kind)
		} else {
			r = attributeResult(value)
		}
	default:
		ev.logger.WithField("key", key.String()).Warn("Producer implements neither compute variant")
		r = unavailable(key.Kind)
	}

	if ev.debug {
		ev.verifyDeclaredInputs(e, p)
	}
	return r, nil
}

// verifyDeclaredInputs compares the keys a compute actually requested
// against its Inputs() declaration. A mismatch does not fail resolution,
// it silently degrades the dependency graph, so it is surfaced here.
func (ev *Evaluator) verifyDeclaredInputs(e *Eval, p Producer) {
	requested := e.topRecorder()
	if requested == nil {
		return
	}

	declared := make(map[Key]struct{})
	for _, in := range p.Inputs() {
		declared[in] = struct{}{}
	}

	var missing, extra []Key
	for k := range declared {
		if _, ok := requested[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range requested {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return
	}
	if ev.onDivergence != nil {
		ev.onDivergence(p, missing, extra)
		return
	}
	ev.logger.
		WithField("key", p.OutputKey().String()).
		WithField("declared_not_requested", formatCycle(missing)).
		WithField("requested_not_declared", formatCycle(extra)).
		Warn("Compute requested a different key set than it declared")
}

// sessionClosed is called from Session.Close with the session lock held.
func (ev *Evaluator) sessionClosed() {
	if ev.metrics != nil {
		ev.metrics.SessionClosed()
	}
}

// resolveOutcome maps a result to its metrics label.
func resolveOutcome(r Result) string {
	switch {
	case r.Fault:
		return telemetry.ResolveFault
	case !r.Available:
		return telemetry.ResolveUnavailable
	default:
		return telemetry.ResolveValue
	}
}

// cyclePath extracts the cycle from the resolution stack: the suffix
// starting at the first occurrence of key, closed with key itself.
func cyclePath(stack []Key, key Key) []Key {
	start := 0
	for i, k := range stack {
		if k == key {
			start = i
			break
		}
	}
	path := make([]Key, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	return append(path, key)
}
