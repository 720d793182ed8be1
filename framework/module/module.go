// Package module defines request-handling modules and the catalog the
// engine obtains them from.
//
// A module is built per request from the request scope, so its constructor
// can take request-scoped dependencies. It declares its routes while being
// constructed:
//
//	type HomeModule struct{ module.Base }
//
//	func NewHomeModule(greeter Greeter) *HomeModule {
//	    m := &HomeModule{}
//	    m.Get("/", func(ctx *gohttp.Context) (*gohttp.Response, error) {
//	        return gohttp.Text(200, greeter.Greet()), nil
//	    })
//	    return m
//	}
package module

import (
	"net/http"
	"reflect"
	"strings"

	gohttp "github.com/km-arc/go-twostep/framework/http"
)

// Handler answers one route.
type Handler func(ctx *gohttp.Context) (*gohttp.Response, error)

// Route is one method + pattern pair. Patterns use chi syntax.
type Route struct {
	Method string
	Path   string
	Handle Handler
}

// Module is anything that contributes routes.
type Module interface {
	Routes() []Route
}

// Catalog hands out modules for a unit of work. Modules are resolved from
// the context's request scope, so two calls for the same context and type
// return the same instance.
type Catalog interface {
	GetAllModules(ctx *gohttp.Context) ([]Module, error)
	GetModule(moduleType reflect.Type, ctx *gohttp.Context) (Module, error)
}

// ── Base ─────────────────────────────────────────────────────────────────────

// Base is an embeddable route builder. Its zero value is ready to use.
type Base struct {
	prefix string
	routes []Route
}

// Routes returns the declared routes in declaration order.
func (b *Base) Routes() []Route { return b.routes }

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (b *Base) Get(pattern string, h Handler)    { b.Handle(http.MethodGet, pattern, h) }
func (b *Base) Post(pattern string, h Handler)   { b.Handle(http.MethodPost, pattern, h) }
func (b *Base) Put(pattern string, h Handler)    { b.Handle(http.MethodPut, pattern, h) }
func (b *Base) Patch(pattern string, h Handler)  { b.Handle(http.MethodPatch, pattern, h) }
func (b *Base) Delete(pattern string, h Handler) { b.Handle(http.MethodDelete, pattern, h) }

// Any registers a handler for all common HTTP methods.
func (b *Base) Any(pattern string, h Handler) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		b.Handle(m, pattern, h)
	}
}

// Handle registers h for method and pattern under the current prefix.
func (b *Base) Handle(method, pattern string, h Handler) {
	b.routes = append(b.routes, Route{
		Method: strings.ToUpper(method),
		Path:   join(b.prefix, pattern),
		Handle: h,
	})
}

// ── Prefixes ─────────────────────────────────────────────────────────────────

// Prefix declares routes under a URL prefix.
//
//	m.Prefix("/api/v1", func() {
//	    m.Get("/users", m.listUsers)
//	})
func (b *Base) Prefix(prefix string, fn func()) {
	saved := b.prefix
	b.prefix = join(saved, prefix)
	defer func() { b.prefix = saved }()
	fn()
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController is the standard RESTful handler set.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
type ResourceController interface {
	Index(ctx *gohttp.Context) (*gohttp.Response, error)
	Store(ctx *gohttp.Context) (*gohttp.Response, error)
	Show(ctx *gohttp.Context) (*gohttp.Response, error)
	Update(ctx *gohttp.Context) (*gohttp.Response, error)
	Destroy(ctx *gohttp.Context) (*gohttp.Response, error)
}

func (b *Base) Resource(pattern string, c ResourceController) {
	b.Get(pattern, c.Index)
	b.Post(pattern, c.Store)
	b.Get(pattern+"/{id}", c.Show)
	b.Put(pattern+"/{id}", c.Update)
	b.Patch(pattern+"/{id}", c.Update)
	b.Delete(pattern+"/{id}", c.Destroy)
}

func join(prefix, pattern string) string {
	p := strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(pattern, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
