package bootstrap

import (
	"github.com/km-arc/go-twostep/framework/binding"
	"github.com/km-arc/go-twostep/framework/catalog"
	"github.com/km-arc/go-twostep/framework/config"
	"github.com/km-arc/go-twostep/framework/engine"
	"github.com/km-arc/go-twostep/framework/environment"
	"github.com/km-arc/go-twostep/framework/providers"
	"github.com/km-arc/go-twostep/framework/registration"
)

// DefaultInternalConfiguration is the framework's own registration bundle.
// Its collections are merged ahead of anything found in the catalog.
func DefaultInternalConfiguration(*catalog.Catalog) *config.Internal {
	return &config.Internal{
		TypeRegistrations: []registration.TypeRegistration{
			{
				RegistrationType: registration.TypeOf[*engine.Engine](),
				Constructor:      engine.New,
				Lifetime:         registration.Singleton,
			},
			{
				RegistrationType: registration.TypeOf[*environment.Configurator](),
				Constructor:      environment.NewConfigurator,
				Lifetime:         registration.Singleton,
			},
		},
		CollectionTypeRegistrations: []registration.CollectionTypeRegistration{
			{
				RegistrationType: registration.TypeOf[ApplicationStartup](),
				Constructors:     []any{NewStaticContentStartup},
				Lifetime:         registration.Singleton,
			},
			{
				RegistrationType: registration.TypeOf[binding.Deserializer](),
				Constructors:     []any{binding.NewJSONDeserializer, binding.NewFormDeserializer},
				Lifetime:         registration.Singleton,
			},
			{
				RegistrationType: registration.TypeOf[registration.Provider](),
				Constructors:     []any{providers.NewConfigProvider, providers.NewBindingProvider},
				Lifetime:         registration.Singleton,
			},
		},
	}
}
