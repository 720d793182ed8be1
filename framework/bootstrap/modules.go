package bootstrap

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-twostep/framework/container"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/module"
	"github.com/km-arc/go-twostep/framework/registration"
)

var _ module.Catalog = (*Bootstrapper)(nil)

// Modules returns the module registrations discovered by Initialise.
func (b *Bootstrapper) Modules() []registration.ModuleRegistration {
	if !b.initialised.Load() {
		return nil
	}
	return append([]registration.ModuleRegistration(nil), b.modules...)
}

// GetAllModules resolves every module from the request scope of ctx.
func (b *Bootstrapper) GetAllModules(ctx *gohttp.Context) ([]module.Module, error) {
	s, err := b.requestScope(ctx)
	if err != nil {
		return nil, err
	}
	b.customizer.RegisterRequestContainerModules(s, b.modules)

	mods, err := container.ResolveAll[module.Module](s)
	if err != nil {
		return nil, fmt.Errorf("%w: modules: %w", ErrResolutionFailure, err)
	}
	return mods, nil
}

// GetModule resolves the module of type moduleType from the request scope
// of ctx. Repeated calls for one ctx return the same instance.
func (b *Bootstrapper) GetModule(moduleType reflect.Type, ctx *gohttp.Context) (module.Module, error) {
	s, err := b.requestScope(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.Resolve(moduleType)
	if err != nil {
		return nil, fmt.Errorf("%w: module %s: %w", ErrResolutionFailure, moduleType, err)
	}
	m, ok := v.(module.Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a module", ErrResolutionFailure, moduleType)
	}
	return m, nil
}

// RequestScope returns the request scope of ctx, creating it on first use.
func (b *Bootstrapper) RequestScope(ctx *gohttp.Context) (container.Resolver, error) {
	return b.requestScope(ctx)
}

func (b *Bootstrapper) requestScope(ctx *gohttp.Context) (container.Resolver, error) {
	if !b.initialised.Load() {
		return nil, ErrNotInitialised
	}
	return b.scopes.GetOrCreate(ctx)
}
