package bootstrap

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/catalog"
	"github.com/km-arc/go-twostep/framework/config"
	"github.com/km-arc/go-twostep/framework/container"
	"github.com/km-arc/go-twostep/framework/conventions"
	"github.com/km-arc/go-twostep/framework/metrics"
)

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithCatalog sets the type catalog. Defaults to catalog.Default.
func WithCatalog(c *catalog.Catalog) Option {
	return func(b *Bootstrapper) { b.catalog = c }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bootstrapper) { b.log = l }
}

// WithMetrics sets the metrics sink. Defaults to a fresh metrics.New().
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bootstrapper) { b.metrics = m }
}

// WithConfig supplies the environment configuration. Without it Initialise
// loads one with config.Load.
func WithConfig(cfg *config.Config) Option {
	return func(b *Bootstrapper) { b.cfg = cfg }
}

// WithContainerFactory swaps the concrete container.
func WithContainerFactory(f func() container.Builder) Option {
	return func(b *Bootstrapper) { b.newContainer = f }
}

// WithInternalConfiguration swaps the framework registration bundle.
//
//	bootstrap.WithInternalConfiguration(func(c *catalog.Catalog) *config.Internal {
//	    return bootstrap.DefaultInternalConfiguration(c).Override(
//	        registration.TypeOf[*environment.Configurator](), NewMyConfigurator)
//	})
func WithInternalConfiguration(f func(*catalog.Catalog) *config.Internal) Option {
	return func(b *Bootstrapper) { b.internalFactory = f }
}

// WithCustomizer installs application hooks.
func WithCustomizer(c Customizer) Option {
	return func(b *Bootstrapper) { b.customizer = c }
}

// WithConventions replaces the default conventions.
func WithConventions(c *conventions.Conventions) Option {
	return func(b *Bootstrapper) { b.conventions = c }
}

// WithFavicon sets the icon served at /favicon.ico. nil disables the hook.
func WithFavicon(icon []byte) Option {
	return func(b *Bootstrapper) { b.favicon = icon }
}
