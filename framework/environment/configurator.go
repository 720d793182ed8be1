package environment

import "go.uber.org/zap"

// Configurator builds the Environment from the registered default providers.
type Configurator struct {
	providers []DefaultConfigurationProvider
	log       *zap.Logger
}

// NewConfigurator receives every registered DefaultConfigurationProvider.
func NewConfigurator(providers []DefaultConfigurationProvider, log *zap.Logger) *Configurator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Configurator{providers: providers, log: log}
}

// ConfigureEnvironment runs configure against a fresh Environment and then
// fills every key configure did not set. configure may be nil.
func (c *Configurator) ConfigureEnvironment(configure func(*Environment)) *Environment {
	env := New()
	if configure != nil {
		configure(env)
	}
	for _, p := range c.providers {
		if env.Has(p.Key()) {
			continue
		}
		env.AddValue(p.Key(), p.DefaultConfiguration())
		c.log.Debug("environment default applied", zap.String("key", p.Key()))
	}
	return env
}
