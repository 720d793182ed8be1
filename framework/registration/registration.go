// Package registration holds the framework-neutral records that describe
// what the composition root must register: type bindings, collections,
// pre-built instances and modules.
//
// Records are plain data. They are produced while registrations are being
// collected, consumed once by the bootstrapper and never mutated afterwards.
package registration

import (
	"errors"
	"fmt"
	"reflect"
)

// ── Lifetime ─────────────────────────────────────────────────────────────────

// Lifetime is the lifetime a registration asks for.
type Lifetime int

const (
	// Transient builds a new instance on every resolution.
	Transient Lifetime = iota
	// Singleton builds one instance for the whole process.
	Singleton
	// PerRequest is reserved for the request scope manager. It is never
	// accepted by an application-level registration path.
	PerRequest
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case PerRequest:
		return "per-request"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

var (
	ErrInvalidLifetime     = errors.New("registration: unable to directly register a per request lifetime")
	ErrUnsupportedLifetime = errors.New("registration: unsupported lifetime")
)

// ValidateLifetime reports whether l may be handed to the application
// container.
func ValidateLifetime(l Lifetime) error {
	switch l {
	case Transient, Singleton:
		return nil
	case PerRequest:
		return ErrInvalidLifetime
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedLifetime, l)
	}
}

// ── Records ──────────────────────────────────────────────────────────────────

// TypeRegistration means "build the constructor's type when RegistrationType
// is requested".
//
//	registration.TypeRegistration{
//	    RegistrationType: registration.TypeOf[Greeter](),
//	    Constructor:      NewEnglishGreeter,
//	    Lifetime:         registration.Singleton,
//	}
type TypeRegistration struct {
	RegistrationType reflect.Type
	Constructor      any
	Lifetime         Lifetime
}

// ImplementationType is the first return type of the constructor, or nil
// when the constructor is not a function.
func (r TypeRegistration) ImplementationType() reflect.Type {
	return ConstructedType(r.Constructor)
}

// CollectionTypeRegistration means "build every constructor's type, in
// order, when the collection of RegistrationType is requested".
type CollectionTypeRegistration struct {
	RegistrationType reflect.Type
	Constructors     []any
	Lifetime         Lifetime
}

// InstanceRegistration means "use this exact object when RegistrationType is
// requested". The instance stays owned by whoever built it.
type InstanceRegistration struct {
	RegistrationType reflect.Type
	Instance         any
}

// ModuleRegistration marks a constructor as producing a request-handling
// module.
type ModuleRegistration struct {
	ModuleType  reflect.Type
	Constructor any
}

// Provider supplies extension registrations. Any of the three slices may be
// nil.
type Provider interface {
	TypeRegistrations() []TypeRegistration
	CollectionTypeRegistrations() []CollectionTypeRegistration
	InstanceRegistrations() []InstanceRegistration
}

// BaseProvider is an embeddable Provider that registers nothing. Embed it
// and override only what you need.
type BaseProvider struct{}

func (BaseProvider) TypeRegistrations() []TypeRegistration                     { return nil }
func (BaseProvider) CollectionTypeRegistrations() []CollectionTypeRegistration { return nil }
func (BaseProvider) InstanceRegistrations() []InstanceRegistration             { return nil }

// ── Helpers ──────────────────────────────────────────────────────────────────

// TypeOf returns the reflect.Type of T, including interface types.
//
//	registration.TypeOf[io.Writer]() // the interface, not a pointer to it
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ConstructedType returns the first return type of ctor, or nil if ctor is
// not a function with at least one result.
func ConstructedType(ctor any) reflect.Type {
	if ctor == nil {
		return nil
	}
	t := reflect.TypeOf(ctor)
	if t.Kind() != reflect.Func || t.NumOut() == 0 {
		return nil
	}
	return t.Out(0)
}

// Modules turns constructors into module registrations, keeping the first
// occurrence of every module type.
func Modules(ctors ...any) []ModuleRegistration {
	seen := make(map[reflect.Type]bool, len(ctors))
	out := make([]ModuleRegistration, 0, len(ctors))
	for _, ctor := range ctors {
		t := ConstructedType(ctor)
		if t == nil || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, ModuleRegistration{ModuleType: t, Constructor: ctor})
	}
	return out
}
