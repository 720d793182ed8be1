package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// ── Capabilities ──────────────────────────────────────────────────────────────

// Builder is the mutable, build-time side of a container. Registrations are
// recorded without any resolution side effects.
type Builder interface {
	// AddType binds service to the type produced by ctor. ctor must be a
	// function returning T or (T, error); its parameters are resolved from
	// the container.
	AddType(service reflect.Type, ctor any, lifetime Lifetime) error

	// AddFactory binds service to a delegate.
	AddFactory(service reflect.Type, factory Factory, lifetime Lifetime) error

	// AddInstance binds service to an already-built value.
	AddInstance(service reflect.Type, instance any) error

	// Stage returns a provisional resolver over the registrations added so
	// far. The builder stays open.
	Stage() (Resolver, error)

	// Build freezes the builder and returns the application resolver.
	Build() (Resolver, error)
}

// Resolver is the built, read-only side of a container.
type Resolver interface {
	// Resolve returns one instance of service, honouring its lifetime. When
	// service has several registrations the last one wins.
	Resolve(service reflect.Type) (any, error)

	// ResolveMany returns one instance per registration of service, in
	// registration order.
	ResolveMany(service reflect.Type) ([]any, error)

	// CreateScope derives a child resolver. Singletons are shared with the
	// parent by reference; Scoped registrations get fresh instances.
	CreateScope() Resolver

	// Dispose closes every io.Closer this resolver created. Calling it
	// again is a no-op.
	Dispose() error
}

// Factory builds a value from the resolver doing the resolution.
//
//	c.AddFactory(registration.TypeOf[*Clock](), func(r container.Resolver) (any, error) {
//	    return &Clock{Now: time.Now}, nil
//	}, container.Singleton)
type Factory func(r Resolver) (any, error)

// ── Lifetime ──────────────────────────────────────────────────────────────────

// Lifetime is the container's own lifetime vocabulary.
type Lifetime int

const (
	Transient Lifetime = iota // new instance on every resolution
	Singleton                 // one instance per root, shared by every scope
	Scoped                    // one instance per scope; not resolvable from the root
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// ── Errors ────────────────────────────────────────────────────────────────────

var (
	ErrNotFunc              = errors.New("container: constructor must be a function")
	ErrBadConstructor       = errors.New("container: constructor must return T or (T, error)")
	ErrNotAssignable        = errors.New("container: implementation is not assignable to service")
	ErrNilService           = errors.New("container: service type is nil")
	ErrNilInstance          = errors.New("container: registered instance cannot be nil")
	ErrNilFactory           = errors.New("container: factory cannot be nil")
	ErrUnsupportedLifetime  = errors.New("container: unsupported lifetime")
	ErrContainerBuilt       = errors.New("container: cannot register after Build")
	ErrServiceNotRegistered = errors.New("container: service not registered")
	ErrScopedOnRoot         = errors.New("container: scoped services cannot be resolved from the root resolver")
	ErrCircularDependency   = errors.New("container: circular dependency")
	ErrConstructorFailed    = errors.New("container: constructor failed")
	ErrTypeMismatch         = errors.New("container: resolved value has unexpected type")
	ErrDisposed             = errors.New("container: resolver already disposed")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ── Container ─────────────────────────────────────────────────────────────────

// binding is one immutable registration.
type binding struct {
	service  reflect.Type
	lifetime Lifetime

	ctor    reflect.Value
	params  []reflect.Type
	withErr bool

	factory Factory

	instance   any
	isInstance bool
}

func (b *binding) String() string { return b.service.String() }

// Container is the bundled Builder implementation. It is safe for concurrent
// use, although registrations normally happen on a single goroutine.
type Container struct {
	mu sync.Mutex

	// service → registrations in the order they were added
	bindings map[reflect.Type][]*binding

	// resolved callbacks: func(service, instance)
	afterResolving []func(reflect.Type, any)

	built bool
}

// New creates an empty container.
func New() *Container {
	return &Container{bindings: make(map[reflect.Type][]*binding)}
}

// ── Registration ──────────────────────────────────────────────────────────────

// AddType registers a constructor.
//
//	c.AddType(registration.TypeOf[Greeter](), NewEnglishGreeter, container.Singleton)
func (c *Container) AddType(service reflect.Type, ctor any, lifetime Lifetime) error {
	if service == nil {
		return ErrNilService
	}
	if err := checkLifetime(lifetime); err != nil {
		return err
	}
	if ctor == nil {
		return fmt.Errorf("%w: %s", ErrNotFunc, service)
	}
	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s got %s", ErrNotFunc, service, t)
	}

	withErr := false
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("%w: %s", ErrBadConstructor, t)
		}
		withErr = true
	default:
		return fmt.Errorf("%w: %s", ErrBadConstructor, t)
	}
	if impl := t.Out(0); !impl.AssignableTo(service) {
		return fmt.Errorf("%w: %s to %s", ErrNotAssignable, impl, service)
	}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}

	return c.add(&binding{
		service:  service,
		lifetime: lifetime,
		ctor:     v,
		params:   params,
		withErr:  withErr,
	})
}

// AddFactory registers a delegate.
func (c *Container) AddFactory(service reflect.Type, factory Factory, lifetime Lifetime) error {
	if service == nil {
		return ErrNilService
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, service)
	}
	if err := checkLifetime(lifetime); err != nil {
		return err
	}
	return c.add(&binding{service: service, lifetime: lifetime, factory: factory})
}

// AddInstance registers a pre-built value. The container never closes it.
//
//	c.AddInstance(registration.TypeOf[*config.Config](), cfg)
func (c *Container) AddInstance(service reflect.Type, instance any) error {
	if service == nil {
		return ErrNilService
	}
	if instance == nil {
		return fmt.Errorf("%w: %s", ErrNilInstance, service)
	}
	if impl := reflect.TypeOf(instance); !impl.AssignableTo(service) {
		return fmt.Errorf("%w: %s to %s", ErrNotAssignable, impl, service)
	}
	return c.add(&binding{
		service:    service,
		lifetime:   Singleton,
		instance:   instance,
		isInstance: true,
	})
}

func (c *Container) add(b *binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return fmt.Errorf("%w: %s", ErrContainerBuilt, b.service)
	}
	c.bindings[b.service] = append(c.bindings[b.service], b)
	return nil
}

func checkLifetime(l Lifetime) error {
	switch l {
	case Transient, Singleton, Scoped:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedLifetime, l)
	}
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired every time an instance is built
// (cache hits do not fire it). Callbacks registered after Build are ignored.
func (c *Container) AfterResolving(cb func(service reflect.Type, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// ── Build ─────────────────────────────────────────────────────────────────────

// Stage snapshots the registrations so far into a resolver of its own.
// Singletons built by a staged resolver are not shared with the resolver
// returned by Build.
func (c *Container) Stage() (Resolver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return nil, ErrContainerBuilt
	}
	return newRoot(c.snapshot(), c.afterResolving), nil
}

// Build freezes the container. Later Add* calls fail with ErrContainerBuilt.
func (c *Container) Build() (Resolver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return nil, ErrContainerBuilt
	}
	c.built = true
	return newRoot(c.snapshot(), c.afterResolving), nil
}

// snapshot copies the registration table (must hold mu).
func (c *Container) snapshot() map[reflect.Type][]*binding {
	out := make(map[reflect.Type][]*binding, len(c.bindings))
	for k, v := range c.bindings {
		out[k] = append([]*binding(nil), v...)
	}
	return out
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve resolves T and type-asserts the result.
//
//	// Instead of: v, err := r.Resolve(registration.TypeOf[*Engine]()); e := v.(*Engine)
//	// Write:      e, err := container.Resolve[*Engine](r)
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	service := reflect.TypeOf((*T)(nil)).Elem()
	v, err := r.Resolve(service)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T", ErrTypeMismatch, service, v)
	}
	return typed, nil
}

// ResolveAll resolves every registration of T.
func ResolveAll[T any](r Resolver) ([]T, error) {
	service := reflect.TypeOf((*T)(nil)).Elem()
	vs, err := r.ResolveMany(service)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s resolved to %T", ErrTypeMismatch, service, v)
		}
		out = append(out, typed)
	}
	return out, nil
}

// closerOf returns v as an io.Closer, if it is one.
func closerOf(v any) (io.Closer, bool) {
	if v == nil {
		return nil, false
	}
	c, ok := v.(io.Closer)
	return c, ok
}
