// Package scope manages the per-request child resolver. The scope is
// created lazily the first time a unit of work needs it, cached on the
// Context, and released when the Context is disposed.
package scope

import (
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/container"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/metrics"
)

// Manager derives request scopes from the application resolver.
type Manager struct {
	root    container.Resolver
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewManager creates a manager over root. m and log may be nil.
func NewManager(root container.Resolver, m *metrics.Metrics, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{root: root, metrics: m, log: log}
}

// GetOrCreate returns the request scope of ctx, creating it on first use.
// Every call for the same ctx returns the identical resolver.
func (m *Manager) GetOrCreate(ctx *gohttp.Context) (container.Resolver, error) {
	s, created, err := ctx.ScopeOrCreate(func() container.Resolver {
		return &tracked{Resolver: m.root.CreateScope(), metrics: m.metrics}
	})
	if err != nil {
		return nil, err
	}
	if created {
		if m.metrics != nil {
			m.metrics.ScopesCreated.Inc()
		}
		m.log.Debug("request scope created", zap.Stringer("context", ctx.ID))
	}
	return s, nil
}

// tracked counts the disposal of a scope.
type tracked struct {
	container.Resolver
	metrics *metrics.Metrics
	once    sync.Once
}

func (t *tracked) Dispose() error {
	t.once.Do(func() {
		if t.metrics != nil {
			t.metrics.ScopesDisposed.Inc()
		}
	})
	return t.Resolver.Dispose()
}
