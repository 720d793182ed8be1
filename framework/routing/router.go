// Package routing is the engine's route table, a thin wrapper over chi.
package routing

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router wraps chi.Mux with the handful of helpers the engine needs.
type Router struct {
	mux *chi.Mux
}

// New creates an empty Router. Middleware belongs to the host, not here.
func New() *Router {
	return &Router{mux: chi.NewRouter()}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Method registers h for an arbitrary method. A method chi does not know, or
// a malformed pattern, is reported as an error instead of a panic.
func (r *Router) Method(method, pattern string, h http.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("routing: %s %s: %v", method, pattern, p)
		}
	}()
	r.mux.Method(strings.ToUpper(method), pattern, h)
	return nil
}

// ── Fallbacks ────────────────────────────────────────────────────────────────

// NotFound sets the handler for unmatched paths.
func (r *Router) NotFound(h http.HandlerFunc) { r.mux.NotFound(h) }

// MethodNotAllowed sets the handler for matched paths with an unknown method.
func (r *Router) MethodNotAllowed(h http.HandlerFunc) { r.mux.MethodNotAllowed(h) }

// ── Introspection ────────────────────────────────────────────────────────────

// Entry is one registered route.
type Entry struct {
	Method  string
	Pattern string
}

// Routes lists every registered route, sorted by pattern then method.
func (r *Router) Routes() []Entry {
	var out []Entry
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Entry{Method: method, Pattern: route})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler. Routing state left on the request by an
// outer chi router is discarded so this table matches the full path.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Context().Value(chi.RouteCtxKey) != nil {
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, nil))
	}
	r.mux.ServeHTTP(w, req)
}
