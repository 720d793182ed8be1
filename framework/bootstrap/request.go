package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	gohttp "github.com/km-arc/go-twostep/framework/http"
)

// RequestPipelines returns the pipelines of ctx. The first call for a
// context clones the application pipelines and runs every request startup
// task against the clone; later calls return the cached result.
func (b *Bootstrapper) RequestPipelines(ctx *gohttp.Context) (*gohttp.Pipelines, error) {
	if !b.initialised.Load() {
		return nil, ErrNotInitialised
	}
	return ctx.PipelinesOrBuild(func() (*gohttp.Pipelines, error) {
		p := b.pipelines.Clone()
		for _, t := range b.requestStartups {
			v, err := b.resolver.Resolve(t)
			if err != nil {
				return nil, fmt.Errorf("%w: request startup %s: %w", ErrResolutionFailure, t, err)
			}
			task, ok := v.(RequestStartup)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a request startup", ErrResolutionFailure, t)
			}
			if err := task.Initialize(p, ctx); err != nil {
				return nil, err
			}
			b.metrics.RequestStartups.WithLabelValues(t.String()).Inc()
			b.log.Debug("request startup ran", zap.Stringer("context", ctx.ID), zap.Stringer("task", t))
		}
		if err := b.customizer.RequestStartup(b.resolver, p, ctx); err != nil {
			return nil, err
		}
		return p, nil
	})
}
