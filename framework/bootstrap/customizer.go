package bootstrap

import (
	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/conventions"
	"github.com/km-arc/go-twostep/framework/environment"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/registration"
)

// ── Startup tasks ────────────────────────────────────────────────────────────

// ApplicationStartup runs once during Initialise, after the resolver is
// built. Catalogue an implementation to have it discovered.
type ApplicationStartup interface {
	Initialize(pipelines *gohttp.Pipelines) error
}

// RequestStartup runs once per unit of work, the first time its pipelines
// are built. Implementations are singletons resolved from the application
// resolver, so they must not hold per-request state.
type RequestStartup interface {
	Initialize(pipelines *gohttp.Pipelines, ctx *gohttp.Context) error
}

// ── Customizer ───────────────────────────────────────────────────────────────

// Customizer is the set of hooks an application uses to shape composition.
// Embed BaseCustomizer and override only what you need.
//
//	type AppCustomizer struct{ bootstrap.BaseCustomizer }
//
//	func (AppCustomizer) ConfigureApplicationContainer(b container.Builder) error {
//	    return b.AddType(registration.TypeOf[Greeter](), NewGreeter, container.Singleton)
//	}
type Customizer interface {
	// ConfigureApplicationContainer adds application registrations. It runs
	// before any framework registration.
	ConfigureApplicationContainer(b container.Builder) error

	// ConfigureConventions adjusts conventions before they are validated.
	ConfigureConventions(c *conventions.Conventions)

	// ApplicationStartup runs after every ApplicationStartup task.
	ApplicationStartup(r container.Resolver, pipelines *gohttp.Pipelines) error

	// RequestStartup runs after every RequestStartup task for a unit of
	// work. r is the application resolver.
	RequestStartup(r container.Resolver, pipelines *gohttp.Pipelines, ctx *gohttp.Context) error

	// Configure sets environment values before the defaults are filled in.
	Configure(env *environment.Environment)

	// RegisterRequestContainerModules runs against the request scope each
	// time every module is requested.
	RegisterRequestContainerModules(scope container.Resolver, modules []registration.ModuleRegistration)
}

// BaseCustomizer is an embeddable Customizer whose hooks do nothing.
type BaseCustomizer struct{}

func (BaseCustomizer) ConfigureApplicationContainer(container.Builder) error { return nil }
func (BaseCustomizer) ConfigureConventions(*conventions.Conventions)         {}
func (BaseCustomizer) ApplicationStartup(container.Resolver, *gohttp.Pipelines) error {
	return nil
}
func (BaseCustomizer) RequestStartup(container.Resolver, *gohttp.Pipelines, *gohttp.Context) error {
	return nil
}
func (BaseCustomizer) Configure(*environment.Environment) {}
func (BaseCustomizer) RegisterRequestContainerModules(container.Resolver, []registration.ModuleRegistration) {
}
