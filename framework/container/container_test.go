package container_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/registration"
)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

type french struct{}

func (french) Greet() string { return "bonjour" }

func newEnglish() greeter { return english{} }
func newFrench() greeter  { return french{} }

type counter struct{ n int }

type service struct{ g greeter }

func newService(g greeter) *service { return &service{g: g} }

type closer struct {
	name string
	log  *[]string
}

func (c *closer) Close() error {
	*c.log = append(*c.log, c.name)
	return nil
}

type failingCloser struct{}

func (*failingCloser) Close() error { return errors.New("close failed") }

type loopA struct{}
type loopB struct{}

func newLoopA(*loopB) *loopA { return &loopA{} }
func newLoopB(*loopA) *loopB { return &loopB{} }

var (
	greeterType = registration.TypeOf[greeter]()
	counterType = registration.TypeOf[*counter]()
	serviceType = registration.TypeOf[*service]()
)

func build(t *testing.T, setup func(c *container.Container)) container.Resolver {
	t.Helper()
	c := container.New()
	setup(c)
	r, err := c.Build()
	require.NoError(t, err)
	return r
}

// ── Registration ──────────────────────────────────────────────────────────────

func TestAddType_RejectsBadConstructors(t *testing.T) {
	c := container.New()

	err := c.AddType(greeterType, "nope", container.Transient)
	assert.ErrorIs(t, err, container.ErrNotFunc)

	err = c.AddType(greeterType, func() (greeter, int) { return nil, 0 }, container.Transient)
	assert.ErrorIs(t, err, container.ErrBadConstructor)

	err = c.AddType(greeterType, func() {}, container.Transient)
	assert.ErrorIs(t, err, container.ErrBadConstructor)

	err = c.AddType(greeterType, func() *counter { return nil }, container.Transient)
	assert.ErrorIs(t, err, container.ErrNotAssignable)

	err = c.AddType(greeterType, newEnglish, container.Lifetime(7))
	assert.ErrorIs(t, err, container.ErrUnsupportedLifetime)
}

func TestAddInstance_RejectsNil(t *testing.T) {
	c := container.New()
	assert.ErrorIs(t, c.AddInstance(counterType, nil), container.ErrNilInstance)
}

func TestBuild_FreezesRegistrations(t *testing.T) {
	c := container.New()
	_, err := c.Build()
	require.NoError(t, err)

	assert.ErrorIs(t, c.AddType(greeterType, newEnglish, container.Singleton), container.ErrContainerBuilt)
	_, err = c.Build()
	assert.ErrorIs(t, err, container.ErrContainerBuilt)
	_, err = c.Stage()
	assert.ErrorIs(t, err, container.ErrContainerBuilt)
}

// ── Resolution ────────────────────────────────────────────────────────────────

func TestResolve_LastRegistrationWins(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(greeterType, newEnglish, container.Transient))
		require.NoError(t, c.AddType(greeterType, newFrench, container.Transient))
	})

	g, err := container.Resolve[greeter](r)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", g.Greet())
}

func TestResolveMany_RegistrationOrder(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(greeterType, newEnglish, container.Transient))
		require.NoError(t, c.AddType(greeterType, newFrench, container.Transient))
	})

	all, err := container.ResolveAll[greeter](r)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "hello", all[0].Greet())
	assert.Equal(t, "bonjour", all[1].Greet())
}

func TestResolve_SliceParameterCollectsRegistrations(t *testing.T) {
	type choir struct{ voices []greeter }
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(greeterType, newEnglish, container.Singleton))
		require.NoError(t, c.AddType(greeterType, newFrench, container.Singleton))
		require.NoError(t, c.AddType(registration.TypeOf[*choir](),
			func(gs []greeter) *choir { return &choir{voices: gs} }, container.Transient))
	})

	ch, err := container.Resolve[*choir](r)
	require.NoError(t, err)
	assert.Len(t, ch.voices, 2)
}

func TestResolve_EmptySliceWhenNothingRegistered(t *testing.T) {
	r := build(t, func(*container.Container) {})
	v, err := r.Resolve(reflect.TypeOf([]greeter(nil)))
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestResolve_InjectsDependencies(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(greeterType, newEnglish, container.Singleton))
		require.NoError(t, c.AddType(serviceType, newService, container.Transient))
	})

	s, err := container.Resolve[*service](r)
	require.NoError(t, err)
	assert.Equal(t, "hello", s.g.Greet())
}

func TestResolve_NotRegistered(t *testing.T) {
	r := build(t, func(*container.Container) {})
	_, err := r.Resolve(greeterType)
	assert.ErrorIs(t, err, container.ErrServiceNotRegistered)
}

func TestResolve_MissingDependencyIsWrapped(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(serviceType, newService, container.Transient))
	})
	_, err := r.Resolve(serviceType)
	assert.ErrorIs(t, err, container.ErrServiceNotRegistered)
}

func TestResolve_CircularDependency(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(registration.TypeOf[*loopA](), newLoopA, container.Singleton))
		require.NoError(t, c.AddType(registration.TypeOf[*loopB](), newLoopB, container.Transient))
	})
	_, err := r.Resolve(registration.TypeOf[*loopA]())
	assert.ErrorIs(t, err, container.ErrCircularDependency)
}

func TestResolve_CircularDependencyThroughFactory(t *testing.T) {
	selfFactory := func(r container.Resolver) (any, error) { return r.Resolve(serviceType) }
	tests := []struct {
		name     string
		register func(t *testing.T, c *container.Container)
		scoped   bool
	}{
		{"singleton factory resolving itself", func(t *testing.T, c *container.Container) {
			require.NoError(t, c.AddFactory(serviceType, selfFactory, container.Singleton))
		}, false},
		{"scoped factory resolving itself", func(t *testing.T, c *container.Container) {
			require.NoError(t, c.AddFactory(serviceType, selfFactory, container.Scoped))
		}, true},
		{"factory reached again through a constructor", func(t *testing.T, c *container.Container) {
			require.NoError(t, c.AddFactory(serviceType, func(r container.Resolver) (any, error) {
				g, err := container.Resolve[greeter](r)
				if err != nil {
					return nil, err
				}
				return &service{g: g}, nil
			}, container.Singleton))
			require.NoError(t, c.AddType(greeterType, func(*service) greeter { return english{} }, container.Singleton))
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := build(t, func(c *container.Container) { tt.register(t, c) })
			if tt.scoped {
				r = r.CreateScope()
			}

			done := make(chan error, 1)
			go func() {
				_, err := r.Resolve(serviceType)
				done <- err
			}()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, container.ErrCircularDependency)
			case <-time.After(2 * time.Second):
				t.Fatal("Resolve did not return")
			}
		})
	}
}

func TestResolve_ConstructorError(t *testing.T) {
	boom := errors.New("boom")
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(counterType, func() (*counter, error) { return nil, boom }, container.Singleton))
	})
	_, err := r.Resolve(counterType)
	assert.ErrorIs(t, err, container.ErrConstructorFailed)
	assert.ErrorIs(t, err, boom)
}

func TestResolve_Factory(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(greeterType, newFrench, container.Singleton))
		require.NoError(t, c.AddFactory(serviceType, func(r container.Resolver) (any, error) {
			g, err := container.Resolve[greeter](r)
			if err != nil {
				return nil, err
			}
			return &service{g: g}, nil
		}, container.Transient))
	})

	s, err := container.Resolve[*service](r)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", s.g.Greet())
}

// ── Lifetimes ─────────────────────────────────────────────────────────────────

func TestLifetimes(t *testing.T) {
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(counterType, func() *counter { return &counter{} }, container.Singleton))
		require.NoError(t, c.AddType(serviceType, func() *service { return &service{} }, container.Scoped))
		require.NoError(t, c.AddType(greeterType, func() greeter { return &english{} }, container.Transient))
	})

	t.Run("singleton shared across scopes", func(t *testing.T) {
		a, b := r.CreateScope(), r.CreateScope()
		defer a.Dispose()
		defer b.Dispose()

		fromRoot, err := r.Resolve(counterType)
		require.NoError(t, err)
		fromA, err := a.Resolve(counterType)
		require.NoError(t, err)
		fromB, err := b.Resolve(counterType)
		require.NoError(t, err)
		assert.Same(t, fromRoot, fromA)
		assert.Same(t, fromA, fromB)
	})

	t.Run("scoped per scope", func(t *testing.T) {
		a, b := r.CreateScope(), r.CreateScope()
		defer a.Dispose()
		defer b.Dispose()

		a1, err := a.Resolve(serviceType)
		require.NoError(t, err)
		a2, err := a.Resolve(serviceType)
		require.NoError(t, err)
		b1, err := b.Resolve(serviceType)
		require.NoError(t, err)
		assert.Same(t, a1, a2)
		assert.NotSame(t, a1, b1)
	})

	t.Run("scoped refused at root", func(t *testing.T) {
		_, err := r.Resolve(serviceType)
		assert.ErrorIs(t, err, container.ErrScopedOnRoot)
	})

	t.Run("transient always new", func(t *testing.T) {
		g1, err := r.Resolve(greeterType)
		require.NoError(t, err)
		g2, err := r.Resolve(greeterType)
		require.NoError(t, err)
		assert.NotSame(t, g1, g2)
	})
}

func TestScoped_ConcurrentResolutionBuildsOnce(t *testing.T) {
	var (
		mu    sync.Mutex
		built int
	)
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(counterType, func() *counter {
			mu.Lock()
			built++
			mu.Unlock()
			return &counter{}
		}, container.Scoped))
	})

	s := r.CreateScope()
	defer s.Dispose()

	var wg sync.WaitGroup
	results := make([]any, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Resolve(counterType)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, built)
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

// ── Stage ─────────────────────────────────────────────────────────────────────

func TestStage_DoesNotFreezeOrShare(t *testing.T) {
	c := container.New()
	require.NoError(t, c.AddType(counterType, func() *counter { return &counter{} }, container.Singleton))

	staged, err := c.Stage()
	require.NoError(t, err)
	fromStage, err := staged.Resolve(counterType)
	require.NoError(t, err)
	require.NoError(t, staged.Dispose())

	require.NoError(t, c.AddType(greeterType, newEnglish, container.Singleton))
	r, err := c.Build()
	require.NoError(t, err)

	fromRoot, err := r.Resolve(counterType)
	require.NoError(t, err)
	assert.NotSame(t, fromStage, fromRoot)

	_, err = r.Resolve(greeterType)
	assert.NoError(t, err)
}

// ── Disposal ──────────────────────────────────────────────────────────────────

func TestDispose_ClosesOwnedInReverseOrder(t *testing.T) {
	var log []string
	closerType := registration.TypeOf[*closer]()
	otherType := registration.TypeOf[*failingCloser]()
	external := &closer{name: "external", log: &log}

	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(closerType, func() *closer { return &closer{name: "scoped", log: &log} }, container.Scoped))
		require.NoError(t, c.AddType(counterType, func(*closer) *counter { return &counter{} }, container.Scoped))
		require.NoError(t, c.AddInstance(registration.TypeOf[any](), external))
		require.NoError(t, c.AddType(otherType, func() *failingCloser { return &failingCloser{} }, container.Transient))
	})

	s := r.CreateScope()
	_, err := s.Resolve(counterType)
	require.NoError(t, err)
	_, err = s.Resolve(registration.TypeOf[any]())
	require.NoError(t, err)

	require.NoError(t, s.Dispose())
	assert.Equal(t, []string{"scoped"}, log)

	// idempotent
	require.NoError(t, s.Dispose())
	assert.Equal(t, []string{"scoped"}, log)

	_, err = s.Resolve(counterType)
	assert.ErrorIs(t, err, container.ErrDisposed)

	// close errors surface from Dispose
	s2 := r.CreateScope()
	_, err = s2.Resolve(otherType)
	require.NoError(t, err)
	assert.Error(t, s2.Dispose())
}

func TestDispose_ChildLeavesSingletonsAlone(t *testing.T) {
	var log []string
	closerType := registration.TypeOf[*closer]()
	r := build(t, func(c *container.Container) {
		require.NoError(t, c.AddType(closerType, func() *closer { return &closer{name: "singleton", log: &log} }, container.Singleton))
	})

	s := r.CreateScope()
	_, err := s.Resolve(closerType)
	require.NoError(t, err)
	require.NoError(t, s.Dispose())
	assert.Empty(t, log)

	require.NoError(t, r.Dispose())
	assert.Equal(t, []string{"singleton"}, log)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

func TestAfterResolving_FiresOnConstruction(t *testing.T) {
	var seen []reflect.Type
	c := container.New()
	c.AfterResolving(func(service reflect.Type, _ any) { seen = append(seen, service) })
	require.NoError(t, c.AddType(counterType, func() *counter { return &counter{} }, container.Singleton))
	r, err := c.Build()
	require.NoError(t, err)

	_, _ = r.Resolve(counterType)
	_, _ = r.Resolve(counterType)
	assert.Equal(t, []reflect.Type{counterType}, seen)
}
