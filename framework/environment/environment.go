// Package environment is the process-wide settings store the engine and
// framework services read their behaviour from.
//
// Values are keyed by string and typed by the caller:
//
//	env.AddValue(environment.KeyTrace, environment.TraceConfiguration{DisplayErrorTraces: true})
//	trace := env.Trace()
//
// Each framework concern ships a DefaultConfigurationProvider. The
// Configurator applies user values first and then fills every key the user
// left untouched from those providers.
package environment

import (
	"sort"
	"sync"
)

// Environment is a typed key/value store. Safe for concurrent use.
type Environment struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty environment.
func New() *Environment {
	return &Environment{values: make(map[string]any)}
}

// AddValue stores v under key, replacing any previous value.
func (e *Environment) AddValue(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = v
}

// Value returns the raw value stored under key.
func (e *Environment) Value(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[key]
	return v, ok
}

// Has reports whether key holds a value.
func (e *Environment) Has(key string) bool {
	_, ok := e.Value(key)
	return ok
}

// Keys returns every key in sorted order.
func (e *Environment) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.values))
	for k := range e.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the value under key as T. ok is false when the key is missing
// or holds another type.
func Get[T any](e *Environment, key string) (T, bool) {
	var zero T
	v, ok := e.Value(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// GetOr is Get with a fallback.
func GetOr[T any](e *Environment, key string, fallback T) T {
	if v, ok := Get[T](e, key); ok {
		return v
	}
	return fallback
}

// ── Typed accessors ──────────────────────────────────────────────────────────

func (e *Environment) JSON() JSONConfiguration {
	return GetOr(e, KeyJSON, defaultJSON)
}

func (e *Environment) Trace() TraceConfiguration {
	return GetOr(e, KeyTrace, defaultTrace)
}

func (e *Environment) Routing() RoutingConfiguration {
	return GetOr(e, KeyRouting, defaultRouting)
}

func (e *Environment) StaticContent() StaticContentConfiguration {
	return GetOr(e, KeyStaticContent, defaultStaticContent)
}

func (e *Environment) Globalization() GlobalizationConfiguration {
	return GetOr(e, KeyGlobalization, defaultGlobalization)
}

func (e *Environment) Views() ViewConfiguration {
	return GetOr(e, KeyViews, defaultViews)
}

func (e *Environment) Diagnostics() DiagnosticsConfiguration {
	return GetOr(e, KeyDiagnostics, defaultDiagnostics)
}

// ── Shorthands ───────────────────────────────────────────────────────────────

// Tracing sets the trace configuration.
//
//	func (c *MyCustomizer) Configure(env *environment.Environment) {
//	    env.Tracing(true, true)
//	}
func (e *Environment) Tracing(enabled, displayErrorTraces bool) {
	e.AddValue(KeyTrace, TraceConfiguration{Enabled: enabled, DisplayErrorTraces: displayErrorTraces})
}

// SafeStaticPaths sets the directories static content may be served from.
func (e *Environment) SafeStaticPaths(paths ...string) {
	e.AddValue(KeyStaticContent, StaticContentConfiguration{SafePaths: paths})
}
