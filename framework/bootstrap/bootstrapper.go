// Package bootstrap is the composition root. It builds the application
// resolver once, in a fixed order, and then hands out request scopes,
// request pipelines and modules for every unit of work.
//
//	b := bootstrap.New(
//	    bootstrap.WithLogger(log),
//	    bootstrap.WithCustomizer(app.Customizer{}),
//	)
//	if err := b.Initialise(); err != nil {
//	    log.Fatal("compose", zap.Error(err))
//	}
//	defer b.Dispose()
//
//	eng, err := b.GetEngine()
package bootstrap

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/binding"
	"github.com/km-arc/go-twostep/framework/catalog"
	"github.com/km-arc/go-twostep/framework/config"
	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/conventions"
	"github.com/km-arc/go-twostep/framework/engine"
	"github.com/km-arc/go-twostep/framework/environment"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/metrics"
	"github.com/km-arc/go-twostep/framework/module"
	"github.com/km-arc/go-twostep/framework/registration"
	"github.com/km-arc/go-twostep/framework/scope"
)

// resolutionObserver is implemented by containers that report every
// instance they construct.
type resolutionObserver interface {
	AfterResolving(cb func(service reflect.Type, instance any))
}

// Bootstrapper moves from uninitialised to initialised exactly once.
// Everything it records during Initialise is read-only afterwards.
type Bootstrapper struct {
	// options
	catalog         *catalog.Catalog
	log             *zap.Logger
	metrics         *metrics.Metrics
	cfg             *config.Config
	newContainer    func() container.Builder
	internalFactory func(*catalog.Catalog) *config.Internal
	customizer      Customizer
	conventions     *conventions.Conventions
	favicon         []byte

	mu          sync.Mutex
	initialised atomic.Bool
	disposing   atomic.Bool

	// written by Initialise before initialised flips
	resolver        container.Resolver
	scopes          *scope.Manager
	pipelines       *gohttp.Pipelines
	modules         []registration.ModuleRegistration
	requestStartups []reflect.Type
}

// New creates an uninitialised bootstrapper.
func New(opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		catalog:         catalog.Default,
		log:             zap.NewNop(),
		newContainer:    func() container.Builder { return container.New() },
		internalFactory: DefaultInternalConfiguration,
		customizer:      BaseCustomizer{},
		conventions:     conventions.New(),
		favicon:         defaultFavicon,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.customizer == nil {
		b.customizer = BaseCustomizer{}
	}
	if b.conventions == nil {
		b.conventions = conventions.New()
	}
	return b
}

// Initialised reports whether Initialise completed.
func (b *Bootstrapper) Initialised() bool { return b.initialised.Load() }

// Metrics returns the metrics sink the bootstrapper records into.
func (b *Bootstrapper) Metrics() *metrics.Metrics { return b.metrics }

// ── Initialise ───────────────────────────────────────────────────────────────

// Initialise composes the application. A second call returns
// ErrAlreadyInitialised without touching anything. A failed call leaves the
// bootstrapper uninitialised.
func (b *Bootstrapper) Initialise() (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialised.Load() {
		return ErrAlreadyInitialised
	}

	start := time.Now()
	var resolver container.Resolver
	defer func() {
		if err != nil && resolver != nil {
			if derr := resolver.Dispose(); derr != nil {
				b.log.Warn("dispose after failed initialise", zap.Error(derr))
			}
		}
	}()

	// 1. configuration
	cfg := b.cfg
	if cfg == nil {
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigurationInvalid, err)
		}
	}
	internal := b.internalFactory(b.catalog)
	if err := internal.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigurationInvalid, err)
	}
	b.log.Debug("configuration loaded", zap.String("env", cfg.App.Env))

	// 2. container
	builder := b.newContainer()
	if o, ok := builder.(resolutionObserver); ok {
		o.AfterResolving(func(service reflect.Type, _ any) {
			b.log.Debug("service constructed", zap.Stringer("service", service))
		})
	}

	// 3. self registrations
	if err := registerInstances(builder, []registration.InstanceRegistration{
		{RegistrationType: registration.TypeOf[module.Catalog](), Instance: b},
		{RegistrationType: registration.TypeOf[*zap.Logger](), Instance: b.log},
		{RegistrationType: registration.TypeOf[*metrics.Metrics](), Instance: b.metrics},
		{RegistrationType: registration.TypeOf[*config.Config](), Instance: cfg},
	}); err != nil {
		return err
	}

	// 4. application container hook
	if err := b.customizer.ConfigureApplicationContainer(builder); err != nil {
		return err
	}

	// 5. conventions, on a copy kept only on success
	conv := b.conventions.Clone()
	if cfg.Static.Dir != "" && !hasStaticPath(conv, cfg.Static.Path) {
		conv.AddStaticDirectory(cfg.Static.Path, cfg.Static.Dir)
	}
	b.customizer.ConfigureConventions(conv)
	if ok, msg := conv.Validate(); !ok {
		return fmt.Errorf("%w:\n%s", ErrConventionsInvalid, msg)
	}

	// 6. types, collections, instances
	requestStartups, err := b.registerAll(builder, internal, conv)
	if err != nil {
		return err
	}

	// 7. registration providers
	if err := b.replayProviders(builder); err != nil {
		return err
	}

	// 8. environment
	if err := b.registerEnvironment(builder); err != nil {
		return err
	}

	// 9. modules
	modules := registration.Modules(b.catalog.Constructors(registration.TypeOf[module.Module](), catalog.ExcludeFramework)...)
	if err := registerModules(builder, modules); err != nil {
		return err
	}
	b.log.Debug("modules registered", zap.Int("count", len(modules)))

	// 10. build
	if resolver, err = builder.Build(); err != nil {
		return err
	}

	// 11. application startup tasks
	pipelines := gohttp.NewPipelines()
	tasks, err := container.ResolveAll[ApplicationStartup](resolver)
	if err != nil {
		return &CompositionError{Err: err}
	}
	for _, t := range tasks {
		if err := t.Initialize(pipelines); err != nil {
			return err
		}
		b.log.Debug("application startup ran", zap.String("task", fmt.Sprintf("%T", t)))
	}

	// 12. application startup hook
	if err := b.customizer.ApplicationStartup(resolver, pipelines); err != nil {
		return err
	}

	// 13. request startup snapshot
	b.requestStartups = requestStartups

	// 14. favicon
	if b.favicon != nil {
		pipelines.BeforeRequest.Prepend(faviconHook(b.favicon))
	}

	// 15. done
	b.resolver = resolver
	b.scopes = scope.NewManager(resolver, b.metrics, b.log)
	b.pipelines = pipelines
	b.modules = modules
	b.conventions = conv
	b.initialised.Store(true)

	elapsed := time.Since(start)
	b.metrics.InitDuration.Set(elapsed.Seconds())
	b.log.Info("application composed",
		zap.Duration("took", elapsed),
		zap.Int("modules", len(modules)),
		zap.Int("application_startups", len(tasks)),
		zap.Int("request_startups", len(requestStartups)),
	)
	return nil
}

// registerAll performs step 6 and returns the request startup types it
// registered.
func (b *Bootstrapper) registerAll(builder container.Builder, internal *config.Internal, conv *conventions.Conventions) ([]reflect.Type, error) {
	if err := registerTypes(builder, internal.TypeRegistrations); err != nil {
		return nil, err
	}

	var startups []reflect.Type
	for _, e := range catalog.Implementing[RequestStartup](b.catalog, catalog.All) {
		if err := builder.AddType(e.Type, e.Constructor, container.Singleton); err != nil {
			return nil, err
		}
		startups = append(startups, e.Type)
	}

	collections := append(
		append([]registration.CollectionTypeRegistration(nil), internal.CollectionTypeRegistrations...),
		b.coreCollections()...,
	)
	if err := registerCollections(builder, collections); err != nil {
		return nil, err
	}

	instances := append(conv.InstanceRegistrations(),
		registration.InstanceRegistration{RegistrationType: registration.TypeOf[*config.Internal](), Instance: internal},
		registration.InstanceRegistration{RegistrationType: registration.TypeOf[*catalog.Catalog](), Instance: b.catalog},
	)
	if err := registerInstances(builder, instances); err != nil {
		return nil, err
	}

	b.log.Debug("core registrations applied",
		zap.Int("types", len(internal.TypeRegistrations)),
		zap.Int("collections", len(collections)),
		zap.Int("instances", len(instances)),
		zap.Int("request_startups", len(startups)),
	)
	return startups, nil
}

// coreCollections are the collections discovered from the catalog.
func (b *Bootstrapper) coreCollections() []registration.CollectionTypeRegistration {
	return []registration.CollectionTypeRegistration{
		{
			RegistrationType: registration.TypeOf[ApplicationStartup](),
			Constructors:     b.catalog.Constructors(registration.TypeOf[ApplicationStartup](), catalog.All),
			Lifetime:         registration.Singleton,
		},
		{
			RegistrationType: registration.TypeOf[registration.Provider](),
			Constructors:     b.catalog.Constructors(registration.TypeOf[registration.Provider](), catalog.All),
			Lifetime:         registration.Singleton,
		},
		{
			RegistrationType: registration.TypeOf[binding.Deserializer](),
			Constructors:     b.catalog.Constructors(registration.TypeOf[binding.Deserializer](), catalog.ExcludeFramework),
			Lifetime:         registration.Singleton,
		},
	}
}

// replayProviders builds every registration.Provider from a staged resolver
// and applies its registrations to builder. The staged resolver is thrown
// away afterwards.
func (b *Bootstrapper) replayProviders(builder container.Builder) error {
	staged, err := builder.Stage()
	if err != nil {
		return err
	}
	defer func() {
		if err := staged.Dispose(); err != nil {
			b.log.Warn("staged resolver dispose failed", zap.Error(err))
		}
	}()

	provs, err := container.ResolveAll[registration.Provider](staged)
	if err != nil {
		return &CompositionError{Err: err}
	}
	for _, p := range provs {
		if err := registerProvider(builder, p); err != nil {
			return fmt.Errorf("provider %T: %w", p, err)
		}
		b.log.Debug("registration provider applied", zap.String("provider", fmt.Sprintf("%T", p)))
	}
	return nil
}

// registerEnvironment performs step 8.
func (b *Bootstrapper) registerEnvironment(builder container.Builder) error {
	for _, ctor := range environment.DefaultProviders() {
		if err := builder.AddType(registration.TypeOf[environment.DefaultConfigurationProvider](), ctor, container.Singleton); err != nil {
			return err
		}
	}
	configure := b.customizer.Configure
	return builder.AddFactory(registration.TypeOf[*environment.Environment](), func(r container.Resolver) (any, error) {
		c, err := container.Resolve[*environment.Configurator](r)
		if err != nil {
			return nil, err
		}
		return c.ConfigureEnvironment(configure), nil
	}, container.Singleton)
}

// registerModules binds every module Scoped under its concrete type, and
// under module.Module through a forward so a scope holds one instance.
func registerModules(builder container.Builder, modules []registration.ModuleRegistration) error {
	for _, m := range modules {
		if err := builder.AddType(m.ModuleType, m.Constructor, container.Scoped); err != nil {
			return err
		}
		t := m.ModuleType
		if err := builder.AddFactory(registration.TypeOf[module.Module](), func(r container.Resolver) (any, error) {
			return r.Resolve(t)
		}, container.Transient); err != nil {
			return err
		}
	}
	return nil
}

func hasStaticPath(c *conventions.Conventions, requestPath string) bool {
	for _, s := range c.StaticContent {
		if s.RequestPath == requestPath {
			return true
		}
	}
	return false
}

// ── Process-wide services ────────────────────────────────────────────────────

// GetEngine resolves the engine and wires it to RequestPipelines.
func (b *Bootstrapper) GetEngine() (*engine.Engine, error) {
	if !b.initialised.Load() {
		return nil, ErrNotInitialised
	}
	e, err := container.Resolve[*engine.Engine](b.resolver)
	if err != nil {
		return nil, &CompositionError{Err: err}
	}
	e.SetRequestPipelinesFactory(b.RequestPipelines)
	return e, nil
}

// GetEnvironment resolves the configured environment.
func (b *Bootstrapper) GetEnvironment() (*environment.Environment, error) {
	if !b.initialised.Load() {
		return nil, ErrNotInitialised
	}
	env, err := container.Resolve[*environment.Environment](b.resolver)
	if err != nil {
		return nil, &CompositionError{Err: err}
	}
	return env, nil
}

// Resolver returns the application resolver, or nil before Initialise.
func (b *Bootstrapper) Resolver() container.Resolver {
	if !b.initialised.Load() {
		return nil
	}
	return b.resolver
}

// ── Teardown ─────────────────────────────────────────────────────────────────

// Dispose releases the application resolver. It does nothing before
// Initialise or when a dispose is already under way. Close failures are
// logged, not returned.
func (b *Bootstrapper) Dispose() {
	if !b.initialised.Load() || !b.disposing.CompareAndSwap(false, true) {
		return
	}
	if err := b.resolver.Dispose(); err != nil && !errors.Is(err, container.ErrDisposed) {
		b.log.Warn("application resolver dispose failed", zap.Error(err))
	}
}
