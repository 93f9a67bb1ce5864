package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass classifies evaluation and registration failures.
type ErrorClass string

const (
	// ErrorClassConfig indicates a load-time configuration problem, such
	// as a duplicate producer registration or a mutation of a sealed
	// registry. Non-fatal: the first registration wins.
	ErrorClassConfig ErrorClass = "config"

	// ErrorClassCycle indicates a key that transitively depends on
	// itself. This is a registry defect, not a data condition, and is
	// never cached.
	ErrorClassCycle ErrorClass = "cycle"

	// ErrorClassFault indicates a defect inside a producer's compute
	// function (a recovered panic). The key resolves to unavailable but
	// the fault is recorded distinctly for diagnostics.
	ErrorClassFault ErrorClass = "fault"
)

// Common error codes.
const (
	ErrCodeDuplicateProducer = "DUPLICATE_PRODUCER"
	ErrCodeRegistrySealed    = "REGISTRY_SEALED"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeComputeFault      = "COMPUTE_FAULT"
	ErrCodeSessionClosed     = "SESSION_CLOSED"
)

// EngineError is a classified error with key and session context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Key is the key being resolved when the error occurred, if any.
	Key string `json:"key,omitempty"`

	// SessionID is the session in which the error occurred, if any.
	SessionID string `json:"session_id,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Class, e.Message)
	if e.Key != "" {
		fmt.Fprintf(&sb, " (key=%s", e.Key)
		if e.SessionID != "" {
			fmt.Fprintf(&sb, ", session=%s", e.SessionID)
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two EngineErrors match when
// class and code agree.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && (t.Code == "" || e.Code == t.Code)
}

// WithKey adds key context to an error.
func (e *EngineError) WithKey(key Key) *EngineError {
	e.Key = key.String()
	return e
}

// WithSession adds session context to an error.
func (e *EngineError) WithSession(sessionID string) *EngineError {
	e.SessionID = sessionID
	return e
}

// NewConfigError creates a load-time configuration error.
func NewConfigError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassConfig, Message: message, Err: err}
}

// NewCycleError creates a cycle error describing the dependency path.
func NewCycleError(path []Key) *EngineError {
	return &EngineError{
		Class:   ErrorClassCycle,
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("circular dependency detected: %s", formatCycle(path)),
	}
}

// NewFaultError creates a compute fault error from a recovered panic value.
func NewFaultError(recovered any) *EngineError {
	return &EngineError{
		Class:   ErrorClassFault,
		Code:    ErrCodeComputeFault,
		Message: fmt.Sprintf("compute panicked: %v", recovered),
	}
}

// IsCycle reports whether err is classified as a dependency cycle.
func IsCycle(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassCycle
	}
	return false
}

// IsConfig reports whether err is classified as a configuration error.
func IsConfig(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfig
	}
	return false
}

// formatCycle renders a dependency path for error messages.
func formatCycle(path []Key) string {
	parts := make([]string, 0, len(path))
	for _, k := range path {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, " -> ")
}
