// Package engine dispatches HTTP requests through the request pipelines to
// the modules the catalog hands out.
//
// The route table is built once, from a throwaway discovery context. Every
// request then resolves its target module afresh from its own request scope.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/environment"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/metrics"
	"github.com/km-arc/go-twostep/framework/module"
	"github.com/km-arc/go-twostep/framework/routing"
)

// ErrNoPipelinesFactory is returned when a request arrives before the
// bootstrapper wired the engine.
var ErrNoPipelinesFactory = errors.New("engine: request pipelines factory not set")

// PipelinesFactory returns the pipelines for one unit of work. It is called
// once per request and owns any caching on the context.
type PipelinesFactory func(ctx *gohttp.Context) (*gohttp.Pipelines, error)

// RouteInfo describes one dispatchable route.
type RouteInfo struct {
	Method string
	Path   string
	Module string
}

// Engine is the process-wide request dispatcher.
type Engine struct {
	catalog module.Catalog
	env     *environment.Environment
	metrics *metrics.Metrics
	log     *zap.Logger

	factory atomic.Pointer[PipelinesFactory]

	once     sync.Once
	router   *routing.Router
	routes   []RouteInfo
	buildErr error
}

// New is the constructor the container calls.
func New(catalog module.Catalog, env *environment.Environment, m *metrics.Metrics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{catalog: catalog, env: env, metrics: m, log: log}
}

// SetRequestPipelinesFactory wires the per-request pipelines source.
func (e *Engine) SetRequestPipelinesFactory(f PipelinesFactory) {
	e.factory.Store(&f)
}

// RequestPipelinesFactory returns the wired factory, or nil.
func (e *Engine) RequestPipelinesFactory() PipelinesFactory {
	if f := e.factory.Load(); f != nil {
		return *f
	}
	return nil
}

// Routes returns the dispatchable routes, building the table if needed.
func (e *Engine) Routes() ([]RouteInfo, error) {
	if err := e.init(); err != nil {
		return nil, err
	}
	return e.routes, nil
}

// ── Route table ──────────────────────────────────────────────────────────────

type dispatchKey struct{}

// dispatch carries a unit of work through the chi table and back.
type dispatch struct {
	ctx *gohttp.Context
	res *gohttp.Response
	err error
}

func (e *Engine) init() error {
	e.once.Do(func() {
		e.buildErr = e.build()
		if e.buildErr != nil {
			e.log.Error("route table build failed", zap.Error(e.buildErr))
		}
	})
	return e.buildErr
}

func (e *Engine) build() error {
	discovery := gohttp.NewContext(nil)
	defer func() {
		if err := discovery.Dispose(); err != nil {
			e.log.Warn("discovery scope dispose failed", zap.Error(err))
		}
	}()

	mods, err := e.catalog.GetAllModules(discovery)
	if err != nil {
		return fmt.Errorf("engine: discover modules: %w", err)
	}

	r := routing.New()
	var routes []RouteInfo
	for _, m := range mods {
		t := reflect.TypeOf(m)
		for i, rt := range m.Routes() {
			if err := r.Method(rt.Method, rt.Path, e.moduleHandler(t, i)); err != nil {
				return fmt.Errorf("engine: %s: %w", t, err)
			}
			routes = append(routes, RouteInfo{Method: rt.Method, Path: rt.Path, Module: t.String()})
		}
	}

	disable405 := e.environment().Routing().DisableMethodNotAllowedResponses
	r.NotFound(func(_ http.ResponseWriter, req *http.Request) {
		fromRequest(req).res = gohttp.NotFound()
	})
	r.MethodNotAllowed(func(_ http.ResponseWriter, req *http.Request) {
		if disable405 {
			fromRequest(req).res = gohttp.NotFound()
			return
		}
		fromRequest(req).res = gohttp.MethodNotAllowed()
	})

	e.router, e.routes = r, routes
	e.log.Debug("route table built", zap.Int("routes", len(routes)), zap.Int("modules", len(mods)))
	return nil
}

// moduleHandler resolves the module for the current unit of work and runs
// its route number index.
func (e *Engine) moduleHandler(moduleType reflect.Type, index int) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		d := fromRequest(req)
		d.ctx.Request = gohttp.NewRequest(req)

		m, err := e.catalog.GetModule(moduleType, d.ctx)
		if err != nil {
			d.err = err
			return
		}
		routes := m.Routes()
		if index >= len(routes) {
			d.err = fmt.Errorf("engine: %s no longer declares route %d", moduleType, index)
			return
		}
		d.res, d.err = routes[index].Handle(d.ctx)
		if d.err == nil && d.res == nil {
			d.res = gohttp.NoContent()
		}
	})
}

func fromRequest(r *http.Request) *dispatch {
	return r.Context().Value(dispatchKey{}).(*dispatch)
}

// route runs the chi table for ctx.
func (e *Engine) route(ctx *gohttp.Context) (*gohttp.Response, error) {
	raw := ctx.Request.Raw()
	d := &dispatch{ctx: ctx}
	e.router.ServeHTTP(discard{}, raw.WithContext(context.WithValue(raw.Context(), dispatchKey{}, d)))
	return d.res, d.err
}

// ── Request handling ─────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.RequestInFlight.Inc()
		defer e.metrics.RequestInFlight.Dec()
	}

	ctx := gohttp.NewContext(r)
	res := e.HandleRequest(ctx)

	status := res.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if err := res.Write(w); err != nil {
		e.log.Warn("response write failed", zap.Stringer("context", ctx.ID), zap.Error(err))
	}
	if err := ctx.Dispose(); err != nil {
		e.log.Warn("request scope dispose failed", zap.Stringer("context", ctx.ID), zap.Error(err))
	}
	if e.metrics != nil {
		e.metrics.ObserveRequest(r.Method, start, status)
	}
}

// HandleRequest runs ctx through the pipelines and the route table. It
// always returns a response; the caller writes it and disposes ctx.
func (e *Engine) HandleRequest(ctx *gohttp.Context) *gohttp.Response {
	factory := e.RequestPipelinesFactory()
	if factory == nil {
		return e.fail(ctx, nil, ErrNoPipelinesFactory)
	}
	pipes, err := factory(ctx)
	if err != nil {
		return e.fail(ctx, nil, err)
	}

	res, err := pipes.Before(ctx)
	if err != nil {
		return e.fail(ctx, pipes, err)
	}
	if res == nil {
		if err := e.init(); err != nil {
			return e.fail(ctx, pipes, err)
		}
		res, err = e.route(ctx)
		if err != nil {
			return e.fail(ctx, pipes, err)
		}
	}

	ctx.Response = res
	if err := pipes.After(ctx); err != nil {
		return e.fail(ctx, pipes, err)
	}
	return ctx.Response
}

// fail turns err into a response through OnError, falling back to a 500
// whose body honours the trace configuration.
func (e *Engine) fail(ctx *gohttp.Context, pipes *gohttp.Pipelines, err error) *gohttp.Response {
	e.log.Error("request failed", zap.Stringer("context", ctx.ID), zap.Error(err))
	if pipes != nil {
		if res := pipes.Error(ctx, err); res != nil {
			ctx.Response = res
			return res
		}
	}
	msg := ""
	if e.environment().Trace().DisplayErrorTraces {
		msg = err.Error()
	}
	ctx.Response = gohttp.ServerError(msg)
	return ctx.Response
}

func (e *Engine) environment() *environment.Environment {
	if e.env == nil {
		return environment.New()
	}
	return e.env
}

// discard is the ResponseWriter handed to the route table; handlers there
// only record into the dispatch.
type discard struct{}

func (discard) Header() http.Header         { return http.Header{} }
func (discard) Write(b []byte) (int, error) { return len(b), nil }
func (discard) WriteHeader(int)             {}
