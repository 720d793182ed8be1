package engine_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-twostep/framework/engine"
	"github.com/km-arc/go-twostep/framework/environment"
	gohttp "github.com/km-arc/go-twostep/framework/http"
	"github.com/km-arc/go-twostep/framework/metrics"
	"github.com/km-arc/go-twostep/framework/module"
)

// ── Fixtures ─────────────────────────────────────────────────────────────────

var errBoom = errors.New("boom")

type usersModule struct{ module.Base }

func newUsersModule() *usersModule {
	m := &usersModule{}
	m.Prefix("/users", func() {
		m.Get("/{id}", func(ctx *gohttp.Context) (*gohttp.Response, error) {
			return gohttp.Text(http.StatusOK, "user "+ctx.Request.RouteParam("id")), nil
		})
		m.Post("/", func(*gohttp.Context) (*gohttp.Response, error) {
			return nil, errBoom
		})
		m.Delete("/{id}", func(*gohttp.Context) (*gohttp.Response, error) {
			return nil, nil
		})
	})
	return m
}

type fakeCatalog struct {
	mods    []module.Module
	lookups atomic.Int32
}

func (c *fakeCatalog) GetAllModules(*gohttp.Context) ([]module.Module, error) {
	return c.mods, nil
}

func (c *fakeCatalog) GetModule(t reflect.Type, _ *gohttp.Context) (module.Module, error) {
	c.lookups.Add(1)
	for _, m := range c.mods {
		if reflect.TypeOf(m) == t {
			return m, nil
		}
	}
	return nil, errors.New("no such module")
}

func pipelinesFactory(configure func(*gohttp.Pipelines)) engine.PipelinesFactory {
	return func(ctx *gohttp.Context) (*gohttp.Pipelines, error) {
		return ctx.PipelinesOrBuild(func() (*gohttp.Pipelines, error) {
			p := gohttp.NewPipelines()
			if configure != nil {
				configure(p)
			}
			return p, nil
		})
	}
}

func newEngine(env *environment.Environment, configure func(*gohttp.Pipelines)) (*engine.Engine, *fakeCatalog, *metrics.Metrics) {
	cat := &fakeCatalog{mods: []module.Module{newUsersModule()}}
	m := metrics.New()
	e := engine.New(cat, env, m, nil)
	e.SetRequestPipelinesFactory(pipelinesFactory(configure))
	return e, cat, m
}

func do(e http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func TestServeHTTP_RoutesToModule(t *testing.T) {
	e, cat, m := newEngine(nil, nil)

	rec := do(e, http.MethodGet, "/users/42")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())
	assert.Equal(t, int32(1), cat.lookups.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RequestInFlight))
}

func TestServeHTTP_NilResponseIsNoContent(t *testing.T) {
	e, _, _ := newEngine(nil, nil)
	rec := do(e, http.MethodDelete, "/users/1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServeHTTP_NotFoundAndMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name    string
		disable bool
		method  string
		target  string
		want    int
	}{
		{"unknown path", false, http.MethodGet, "/nope", http.StatusNotFound},
		{"wrong method", false, http.MethodPut, "/users/1", http.StatusMethodNotAllowed},
		{"wrong method, 405 disabled", true, http.MethodPut, "/users/1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := environment.New()
			env.AddValue(environment.KeyRouting, environment.RoutingConfiguration{DisableMethodNotAllowedResponses: tt.disable})
			e, _, _ := newEngine(env, nil)

			rec := do(e, tt.method, tt.target)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServeHTTP_BeforeRequestShortCircuits(t *testing.T) {
	e, cat, _ := newEngine(nil, func(p *gohttp.Pipelines) {
		p.BeforeRequest.Append(func(*gohttp.Context) (*gohttp.Response, error) {
			return gohttp.Error(http.StatusUnauthorized, "Unauthenticated."), nil
		})
	})

	rec := do(e, http.MethodGet, "/users/42")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, cat.lookups.Load())
}

func TestServeHTTP_AfterRequestSeesResponse(t *testing.T) {
	e, _, _ := newEngine(nil, func(p *gohttp.Pipelines) {
		p.AfterRequest.Append(func(ctx *gohttp.Context) error {
			ctx.Response.WithHeader("X-Status", http.StatusText(ctx.Response.StatusCode))
			return nil
		})
	})

	rec := do(e, http.MethodGet, "/users/1")
	assert.Equal(t, "OK", rec.Header().Get("X-Status"))
}

func TestServeHTTP_OnError(t *testing.T) {
	var seen error
	e, _, _ := newEngine(nil, func(p *gohttp.Pipelines) {
		p.OnError.Append(func(_ *gohttp.Context, err error) *gohttp.Response {
			seen = err
			return gohttp.Error(http.StatusTeapot, "handled")
		})
	})

	rec := do(e, http.MethodPost, "/users")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, seen, errBoom)
}

func TestServeHTTP_ErrorTraces(t *testing.T) {
	tests := []struct {
		name    string
		display bool
		want    bool
	}{
		{"hidden", false, false},
		{"displayed", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := environment.New()
			env.Tracing(true, tt.display)
			e, _, _ := newEngine(env, nil)

			rec := do(e, http.MethodPost, "/users")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, strings.Contains(rec.Body.String(), "boom"))
		})
	}
}

func TestServeHTTP_WithoutFactory(t *testing.T) {
	e := engine.New(&fakeCatalog{}, nil, nil, nil)
	rec := do(e, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRequest_FactoryError(t *testing.T) {
	e := engine.New(&fakeCatalog{}, nil, nil, nil)
	e.SetRequestPipelinesFactory(func(*gohttp.Context) (*gohttp.Pipelines, error) {
		return nil, errBoom
	})

	ctx := gohttp.NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
	res := e.HandleRequest(ctx)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Same(t, res, ctx.Response)
}

func TestRoutes(t *testing.T) {
	e, _, _ := newEngine(nil, nil)

	routes, err := e.Routes()
	require.NoError(t, err)
	require.Len(t, routes, 3)
	for _, r := range routes {
		assert.Equal(t, "*engine_test.usersModule", r.Module)
	}
	assert.Equal(t, engine.RouteInfo{Method: http.MethodGet, Path: "/users/{id}", Module: "*engine_test.usersModule"}, routes[0])
}

type davModule struct{ module.Base }

func newDavModule() *davModule {
	m := &davModule{}
	m.Handle("PROPFIND", "/dav", func(*gohttp.Context) (*gohttp.Response, error) {
		return gohttp.Text(http.StatusOK, "dav"), nil
	})
	return m
}

func TestServeHTTP_UnsupportedRouteMethod(t *testing.T) {
	e := engine.New(&fakeCatalog{mods: []module.Module{newDavModule()}}, nil, nil, nil)
	e.SetRequestPipelinesFactory(pipelinesFactory(nil))

	for range 2 {
		rec := do(e, http.MethodGet, "/dav")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	routes, err := e.Routes()
	assert.Error(t, err)
	assert.Empty(t, routes)
}
