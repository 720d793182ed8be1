// Package providers holds the framework's own registration providers. They
// are replayed after the core registrations, so their constructors may
// depend on core services such as *config.Config.
package providers

import (
	"github.com/km-arc/go-twostep/framework/binding"
	"github.com/km-arc/go-twostep/framework/config"
	"github.com/km-arc/go-twostep/framework/registration"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider exposes each section of the loaded configuration as its
// own injectable value.
//
// Registered services:
//   - *config.AppConfig
//   - *config.LogConfig
//   - *config.MetricsConfig
//   - *config.StaticConfig
type ConfigProvider struct {
	registration.BaseProvider
	cfg *config.Config
}

func NewConfigProvider(cfg *config.Config) *ConfigProvider {
	return &ConfigProvider{cfg: cfg}
}

func (p *ConfigProvider) InstanceRegistrations() []registration.InstanceRegistration {
	return []registration.InstanceRegistration{
		{RegistrationType: registration.TypeOf[*config.AppConfig](), Instance: &p.cfg.App},
		{RegistrationType: registration.TypeOf[*config.LogConfig](), Instance: &p.cfg.Log},
		{RegistrationType: registration.TypeOf[*config.MetricsConfig](), Instance: &p.cfg.Metrics},
		{RegistrationType: registration.TypeOf[*config.StaticConfig](), Instance: &p.cfg.Static},
	}
}

// ── BindingProvider ───────────────────────────────────────────────────────────

// BindingProvider registers the request body binder. The binder receives
// every registered binding.Deserializer.
//
// Registered services:
//   - *binding.Binder (singleton)
type BindingProvider struct {
	registration.BaseProvider
}

func NewBindingProvider() *BindingProvider { return &BindingProvider{} }

func (p *BindingProvider) TypeRegistrations() []registration.TypeRegistration {
	return []registration.TypeRegistration{
		{
			RegistrationType: registration.TypeOf[*binding.Binder](),
			Constructor:      binding.NewBinder,
			Lifetime:         registration.Singleton,
		},
	}
}
