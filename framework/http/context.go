package http

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-twostep/framework/container"
)

// RequestIDHeader is honoured when it carries a valid UUID.
const RequestIDHeader = "X-Request-ID"

// Context is one unit of work: a request, its eventual response and the
// per-request state the framework attaches to it.
//
// The request scope and the request pipelines live in typed slots, each
// built at most once per Context. Both slots are safe for concurrent use.
type Context struct {
	ID       uuid.UUID
	Request  *Request
	Response *Response

	itemsMu sync.RWMutex
	items   map[string]any

	scopeMu  sync.Mutex
	scope    container.Resolver
	disposed bool

	pipesMu   sync.Mutex
	pipelines *Pipelines
}

// NewContext wraps r. A nil r yields a request-less context, which is what
// route discovery uses.
func NewContext(r *http.Request) *Context {
	ctx := &Context{ID: uuid.New(), items: make(map[string]any)}
	if r != nil {
		ctx.Request = NewRequest(r)
		if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
			ctx.ID = id
		}
	}
	return ctx
}

// ── Items ────────────────────────────────────────────────────────────────────

// Set stores a value for later hooks and modules.
func (c *Context) Set(key string, v any) {
	c.itemsMu.Lock()
	defer c.itemsMu.Unlock()
	c.items[key] = v
}

// Get returns a stored value.
func (c *Context) Get(key string) (any, bool) {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// ── Scope slot ───────────────────────────────────────────────────────────────

// Scope returns the request scope, or nil when none was created yet.
func (c *Context) Scope() container.Resolver {
	c.scopeMu.Lock()
	defer c.scopeMu.Unlock()
	return c.scope
}

// ScopeOrCreate returns the request scope, calling create the first time.
// The second result reports whether create ran.
func (c *Context) ScopeOrCreate(create func() container.Resolver) (container.Resolver, bool, error) {
	c.scopeMu.Lock()
	defer c.scopeMu.Unlock()
	if c.disposed {
		return nil, false, container.ErrDisposed
	}
	if c.scope != nil {
		return c.scope, false, nil
	}
	c.scope = create()
	return c.scope, true, nil
}

// ── Pipelines slot ───────────────────────────────────────────────────────────

// Pipelines returns the request pipelines, or nil when none were built yet.
func (c *Context) Pipelines() *Pipelines {
	c.pipesMu.Lock()
	defer c.pipesMu.Unlock()
	return c.pipelines
}

// PipelinesOrBuild returns the request pipelines, calling build the first
// time. A failed build is not cached.
func (c *Context) PipelinesOrBuild(build func() (*Pipelines, error)) (*Pipelines, error) {
	c.pipesMu.Lock()
	defer c.pipesMu.Unlock()
	if c.pipelines != nil {
		return c.pipelines, nil
	}
	p, err := build()
	if err != nil {
		return nil, err
	}
	c.pipelines = p
	return p, nil
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

// Dispose releases the request scope. Later calls are no-ops, and no scope
// can be created afterwards.
func (c *Context) Dispose() error {
	c.scopeMu.Lock()
	if c.disposed {
		c.scopeMu.Unlock()
		return nil
	}
	c.disposed = true
	s := c.scope
	c.scopeMu.Unlock()

	if s == nil {
		return nil
	}
	return s.Dispose()
}
