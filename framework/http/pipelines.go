package http

// ── Hooks ────────────────────────────────────────────────────────────────────

// BeforeHook runs before routing. Returning a non-nil response ends the
// request without reaching a module.
type BeforeHook func(ctx *Context) (*Response, error)

// AfterHook runs once a response exists. It may replace ctx.Response.
type AfterHook func(ctx *Context) error

// ErrorHook turns a failure into a response. Returning nil passes the error
// to the next hook.
type ErrorHook func(ctx *Context, err error) *Response

// ── Pipeline ─────────────────────────────────────────────────────────────────

// Pipeline is an ordered list of hooks.
type Pipeline[H any] struct {
	items []H
}

// Prepend adds h before every existing hook.
func (p *Pipeline[H]) Prepend(h H) {
	p.items = append([]H{h}, p.items...)
}

// Append adds h after every existing hook.
func (p *Pipeline[H]) Append(h H) {
	p.items = append(p.items, h)
}

// Items returns the hooks in order.
func (p *Pipeline[H]) Items() []H { return p.items }

// Len returns the number of hooks.
func (p *Pipeline[H]) Len() int { return len(p.items) }

func (p Pipeline[H]) clone() Pipeline[H] {
	return Pipeline[H]{items: append([]H(nil), p.items...)}
}

// ── Pipelines ────────────────────────────────────────────────────────────────

// Pipelines groups the three hook lists every request runs through. The
// application keeps one instance; each request works on a Clone.
//
//	pipelines.BeforeRequest.Append(func(ctx *http.Context) (*http.Response, error) {
//	    if ctx.Request.BearerToken() == "" {
//	        return http.Error(401, "Unauthenticated."), nil
//	    }
//	    return nil, nil
//	})
type Pipelines struct {
	BeforeRequest Pipeline[BeforeHook]
	AfterRequest  Pipeline[AfterHook]
	OnError       Pipeline[ErrorHook]
}

// NewPipelines returns empty pipelines.
func NewPipelines() *Pipelines { return &Pipelines{} }

// Clone copies the hook lists so additions to the copy stay local.
func (p *Pipelines) Clone() *Pipelines {
	return &Pipelines{
		BeforeRequest: p.BeforeRequest.clone(),
		AfterRequest:  p.AfterRequest.clone(),
		OnError:       p.OnError.clone(),
	}
}

// Before runs BeforeRequest hooks in order and stops at the first
// response or error.
func (p *Pipelines) Before(ctx *Context) (*Response, error) {
	for _, h := range p.BeforeRequest.items {
		res, err := h(ctx)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// After runs AfterRequest hooks in order and stops at the first error.
func (p *Pipelines) After(ctx *Context) error {
	for _, h := range p.AfterRequest.items {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Error runs OnError hooks until one produces a response.
func (p *Pipelines) Error(ctx *Context, err error) *Response {
	for _, h := range p.OnError.items {
		if res := h(ctx, err); res != nil {
			return res
		}
	}
	return nil
}
