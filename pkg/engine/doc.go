// Package engine implements the dependency-driven computation core of the
// FlySight Viewer: sessions, the producer registry, and the evaluator that
// resolves attribute and measurement keys on demand.
//
// A Session holds the raw per-sensor tables created by import plus a
// per-session cache of resolved values. Producers declare an output Key,
// a list of input Keys, and a compute function; the Evaluator resolves a
// requested Key depth-first, computing each producer at most once per
// session and caching the outcome (value or unavailable) for the lifetime
// of the session.
//
// Resolution outcomes collapse to two observable states at the session
// boundary, a value or unavailable, with one exception: a dependency
// cycle is a registry bug and surfaces as a distinct error that is never
// cached, so the key becomes resolvable again once the registry is fixed.
package engine
