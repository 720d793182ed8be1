package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"
)

// scope is the Resolver handed out by Stage, Build and CreateScope. The
// root scope owns singletons; child scopes own their scoped instances.
type scope struct {
	bindings  map[reflect.Type][]*binding
	callbacks []func(reflect.Type, any)
	root      *scope

	mu       sync.Mutex
	slots    map[*binding]*slot
	owned    []io.Closer
	seen     map[any]struct{}
	disposed bool
}

// slot caches one singleton or scoped instance. Its mutex serialises the
// first construction so concurrent callers observe the same value.
type slot struct {
	mu    sync.Mutex
	done  bool
	value any
}

func newRoot(bindings map[reflect.Type][]*binding, callbacks []func(reflect.Type, any)) *scope {
	s := &scope{
		bindings:  bindings,
		callbacks: slices.Clone(callbacks),
		slots:     make(map[*binding]*slot),
		seen:      make(map[any]struct{}),
	}
	s.root = s
	return s
}

func (s *scope) isRoot() bool { return s.root == s }

// ── Resolver ──────────────────────────────────────────────────────────────────

func (s *scope) Resolve(service reflect.Type) (any, error) {
	if service == nil {
		return nil, ErrNilService
	}
	return s.resolve(service, nil)
}

func (s *scope) ResolveMany(service reflect.Type) ([]any, error) {
	if service == nil {
		return nil, ErrNilService
	}
	return s.resolveMany(service, nil)
}

func (s *scope) resolveMany(service reflect.Type, chain []*binding) ([]any, error) {
	if s.isDisposed() {
		return nil, ErrDisposed
	}
	bs := s.bindings[service]
	out := make([]any, 0, len(bs))
	for _, b := range bs {
		v, err := s.instantiate(b, chain)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *scope) CreateScope() Resolver {
	return &scope{
		bindings:  s.bindings,
		callbacks: s.callbacks,
		root:      s.root,
		slots:     make(map[*binding]*slot),
		seen:      make(map[any]struct{}),
	}
}

func (s *scope) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	owned := s.owned
	s.owned = nil
	s.seen = nil
	s.mu.Unlock()

	var errs []error
	for i := len(owned) - 1; i >= 0; i-- {
		if err := owned[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// chained is the Resolver a factory receives. It carries the resolution
// chain so a factory that resolves its own service fails with
// ErrCircularDependency instead of waiting on its own slot.
type chained struct {
	*scope
	chain []*binding
}

func (c chained) Resolve(service reflect.Type) (any, error) {
	if service == nil {
		return nil, ErrNilService
	}
	return c.scope.resolve(service, c.chain)
}

func (c chained) ResolveMany(service reflect.Type) ([]any, error) {
	if service == nil {
		return nil, ErrNilService
	}
	return c.scope.resolveMany(service, c.chain)
}

// ── Resolution ────────────────────────────────────────────────────────────────

func (s *scope) resolve(service reflect.Type, chain []*binding) (any, error) {
	if s.isDisposed() {
		return nil, ErrDisposed
	}
	bs := s.bindings[service]
	if len(bs) == 0 {
		if service.Kind() == reflect.Slice {
			return s.resolveSlice(service, chain)
		}
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, service)
	}
	return s.instantiate(bs[len(bs)-1], chain)
}

// resolveSlice fills an unregistered []T with every registration of T.
func (s *scope) resolveSlice(sliceType reflect.Type, chain []*binding) (any, error) {
	elem := sliceType.Elem()
	bs := s.bindings[elem]
	out := reflect.MakeSlice(sliceType, 0, len(bs))
	for _, b := range bs {
		v, err := s.instantiate(b, chain)
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, valueFor(v, elem))
	}
	return out.Interface(), nil
}

func (s *scope) instantiate(b *binding, chain []*binding) (any, error) {
	for _, c := range chain {
		if c == b {
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, describe(chain, b))
		}
	}

	if b.isInstance {
		return b.instance, nil
	}

	switch b.lifetime {
	case Singleton:
		return s.root.cached(b, chain)
	case Scoped:
		if s.isRoot() {
			return nil, fmt.Errorf("%w: %s", ErrScopedOnRoot, b.service)
		}
		return s.cached(b, chain)
	default:
		v, err := s.create(b, chain)
		if err != nil {
			return nil, err
		}
		if err := s.own(v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (s *scope) cached(b *binding, chain []*binding) (any, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	sl, ok := s.slots[b]
	if !ok {
		sl = &slot{}
		s.slots[b] = sl
	}
	s.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.done {
		return sl.value, nil
	}
	v, err := s.create(b, chain)
	if err != nil {
		return nil, err
	}
	if err := s.own(v); err != nil {
		return nil, err
	}
	sl.value, sl.done = v, true
	return v, nil
}

func (s *scope) create(b *binding, chain []*binding) (any, error) {
	chain = append(chain[:len(chain):len(chain)], b)

	var (
		v   any
		err error
	)
	if b.factory != nil {
		v, err = b.factory(chained{scope: s, chain: chain})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConstructorFailed, b.service, err)
		}
	} else {
		args := make([]reflect.Value, len(b.params))
		for i, p := range b.params {
			dep, err := s.resolve(p, chain)
			if err != nil {
				return nil, fmt.Errorf("container: resolving %s for %s: %w", p, b.service, err)
			}
			args[i] = valueFor(dep, p)
		}
		out := b.ctor.Call(args)
		if b.withErr && !out[1].IsNil() {
			return nil, fmt.Errorf("%w: %s: %w", ErrConstructorFailed, b.service, out[1].Interface().(error))
		}
		v = out[0].Interface()
	}

	for _, cb := range s.callbacks {
		cb(b.service, v)
	}
	return v, nil
}

// own records v for disposal when it is an io.Closer built by this scope.
func (s *scope) own(v any) error {
	c, ok := closerOf(v)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	if reflect.TypeOf(c).Comparable() {
		if _, dup := s.seen[c]; dup {
			return nil
		}
		s.seen[c] = struct{}{}
	}
	s.owned = append(s.owned, c)
	return nil
}

func (s *scope) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// valueFor converts a resolved value into an argument of type t.
func valueFor(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

func describe(chain []*binding, last *binding) string {
	out := ""
	for _, b := range chain {
		out += b.String() + " -> "
	}
	return out + last.String()
}
